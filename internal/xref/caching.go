package xref

import (
	"context"
	"log/slog"
	"time"

	"github.com/ppiankov/biomap/internal/cache"
	"github.com/ppiankov/biomap/internal/model"
)

// CachingProvider memoizes another provider's results
type CachingProvider struct {
	inner     Provider
	cache     cache.Cache
	ttl       time.Duration
	namespace string
	logger    *slog.Logger
}

// NewCachingProvider wraps inner; namespace separates sources sharing a cache
func NewCachingProvider(inner Provider, c cache.Cache, namespace string, ttl time.Duration, logger *slog.Logger) *CachingProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingProvider{inner: inner, cache: c, ttl: ttl, namespace: namespace, logger: logger}
}

func (p *CachingProvider) MappingsFor(ctx context.Context, prefix string) ([]model.Xref, error) {
	key := cache.Key("xrefs", p.namespace, prefix)

	var xrefs []model.Xref
	if cache.GetJSON(p.cache, key, &xrefs) {
		p.logger.Debug("xref cache hit", "prefix", prefix)
		return xrefs, nil
	}

	xrefs, err := p.inner.MappingsFor(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(p.cache, key, xrefs, p.ttl); err != nil {
		p.logger.Warn("failed to cache xrefs", "prefix", prefix, "error", err)
	}
	return xrefs, nil
}
