package xref

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/util"
	"github.com/ppiankov/biomap/internal/worker"
)

// HTTPProvider fetches <base>/<prefix>.tsv from a remote mirror
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	logger     *slog.Logger

	delayOnce sync.Map // host -> struct{}, crawl delay applied
}

// NewHTTPProvider builds a provider from the xrefs config section
func NewHTTPProvider(cfg model.XrefConfig, logger *slog.Logger) *HTTPProvider {
	if logger == nil {
		logger = slog.Default()
	}

	client := util.NewHTTPClient(cfg.Timeout, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}

	p := &HTTPProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		logger:     logger,
	}
	if cfg.RespectRobots {
		p.robots = util.NewRobotsChecker(client, cfg.UserAgent, logger)
	}
	return p
}

// URLFor returns the mirror URL for a prefix
func (p *HTTPProvider) URLFor(prefix string) string {
	return p.baseURL + "/" + url.PathEscape(prefix) + ".tsv"
}

func (p *HTTPProvider) MappingsFor(ctx context.Context, prefix string) ([]model.Xref, error) {
	target := p.URLFor(prefix)

	if p.robots != nil {
		allowed, delay, err := p.robots.CanFetch(ctx, target)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, target)
		}
		p.applyCrawlDelay(target, delay)
	}

	if err := p.limiter.Wait(ctx, target); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/tab-separated-values, text/plain;q=0.9")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch xrefs for %s: %w", prefix, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		p.logger.Debug("no xrefs on mirror", "prefix", prefix, "url", target)
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch xrefs for %s: unexpected status %d", prefix, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if p.maxBytes > 0 {
		body = &limitedReader{r: io.LimitReader(resp.Body, p.maxBytes+1), max: p.maxBytes}
	}

	xrefs, err := ParseTSV(body)
	if err != nil {
		return nil, fmt.Errorf("parse xrefs for %s: %w", prefix, err)
	}
	p.logger.Debug("fetched xrefs", "prefix", prefix, "count", len(xrefs), "elapsed", time.Since(start))
	return xrefs, nil
}

// applyCrawlDelay slows the host down to the robots.txt crawl delay once
func (p *HTTPProvider) applyCrawlDelay(rawURL string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	if _, loaded := p.delayOnce.LoadOrStore(parsed.Host, struct{}{}); loaded {
		return
	}
	p.limiter.SetHostRate(parsed.Host, 1/delay.Seconds(), 1)
}

// limitedReader fails once more than max bytes have been read
type limitedReader struct {
	r    io.Reader
	max  int64
	read int64
}

func (l *limitedReader) Read(b []byte) (int, error) {
	n, err := l.r.Read(b)
	l.read += int64(n)
	if l.read > l.max {
		return n, fmt.Errorf("response exceeds %d bytes", l.max)
	}
	return n, err
}
