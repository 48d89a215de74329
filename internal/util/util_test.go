package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
)

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("biomap/0.1 (+https://example.org)"); got != "biomap" {
		t.Errorf("expected biomap, got %s", got)
	}
	if got := NormalizeUserAgent(""); got != "" {
		t.Errorf("expected empty, got %s", got)
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "http://secure-proxy:3128", "internal.example, localhost")

	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "mirror.example.org"}}
	u, err := proxy(req)
	if err != nil || u == nil || u.Host != "secure-proxy:3128" {
		t.Errorf("expected secure proxy, got %v %v", u, err)
	}

	req = &http.Request{URL: &url.URL{Scheme: "http", Host: "mirror.example.org"}}
	if u, _ := proxy(req); u == nil || u.Host != "proxy:3128" {
		t.Errorf("expected http proxy, got %v", u)
	}

	req = &http.Request{URL: &url.URL{Scheme: "https", Host: "api.internal.example:8443"}}
	if u, _ := proxy(req); u != nil {
		t.Errorf("expected bypass for no_proxy host, got %v", u)
	}
}

func TestNewProxyFunc_NoProxyRules(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "http://proxy:3128", "10.0.0.0/8,mirror.example.org:8080")

	tests := []struct {
		name   string
		host   string
		direct bool
	}{
		{"cidr range", "10.1.2.3", true},
		{"matching port", "mirror.example.org:8080", true},
		{"other port", "mirror.example.org:9090", false},
		{"outside range", "192.0.2.10", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{URL: &url.URL{Scheme: "http", Host: tt.host}}
			u, err := proxy(req)
			if err != nil {
				t.Fatalf("proxy: %v", err)
			}
			if tt.direct && u != nil {
				t.Errorf("expected direct connection to %s, got %v", tt.host, u)
			}
			if !tt.direct && (u == nil || u.Host != "proxy:3128") {
				t.Errorf("expected proxy for %s, got %v", tt.host, u)
			}
		})
	}
}

func TestRobotsChecker(t *testing.T) {
	var robotsHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			fmt.Fprint(w, "User-agent: biomap\nDisallow: /private/\nCrawl-delay: 2\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := NewRobotsChecker(srv.Client(), "biomap/0.1", nil)
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, srv.URL+"/xrefs/doid.tsv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("expected public path to be allowed")
	}
	if delay.Seconds() != 2 {
		t.Errorf("expected 2s crawl delay, got %v", delay)
	}

	allowed, _, _ = checker.CanFetch(ctx, srv.URL+"/private/doid.tsv")
	if allowed {
		t.Error("expected private path to be disallowed")
	}
	if robotsHits.Load() != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", robotsHits.Load())
	}
}

func TestRobotsChecker_Missing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	checker := NewRobotsChecker(srv.Client(), "biomap/0.1", nil)
	allowed, _, err := checker.CanFetch(context.Background(), srv.URL+"/doid.tsv")
	if err != nil || !allowed {
		t.Errorf("expected missing robots.txt to allow, got %v %v", allowed, err)
	}
}
