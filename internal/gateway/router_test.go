package gateway

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/canonroute/canonroute/internal/config"
)

func TestRouterMatchLongestPrefix(t *testing.T) {
	cfg := &config.Config{
		Routes: []config.Route{
			{Match: config.RouteMatch{PathPrefix: "/shop/"}, Upstream: "shop"},
			{Match: config.RouteMatch{PathPrefix: "/shop/cart/"}, Upstream: "cart"},
		},
	}

	router, err := NewRouter(cfg)
	if err != nil {
		t.Fatalf("NewRouter error: %v", err)
	}

	req := &http.Request{URL: &url.URL{Path: "/shop/cart/items/"}, Host: "dev.local"}
	route, ok := router.Match(req)
	if !ok {
		t.Fatal("expected route match")
	}
	if route.Upstream != "cart" {
		t.Fatalf("expected cart upstream, got %q", route.Upstream)
	}
}

func TestRouterHostPrecedence(t *testing.T) {
	cfg := &config.Config{
		Routes: []config.Route{
			{Match: config.RouteMatch{PathPrefix: "/"}, Upstream: "any"},
			{Match: config.RouteMatch{Host: "*.Dev.Local", PathPrefix: "/"}, Upstream: "wild"},
			{Match: config.RouteMatch{Host: "shop.dev.local", PathPrefix: "/"}, Upstream: "exact"},
		},
	}

	router, err := NewRouter(cfg)
	if err != nil {
		t.Fatalf("NewRouter error: %v", err)
	}

	cases := map[string]string{
		"shop.dev.local:8443": "exact",
		"blog.dev.local":      "wild",
		"a.b.dev.local":       "any",
		"dev.local":           "any",
		"SHOP.dev.local.":     "exact",
	}

	for host, want := range cases {
		route, ok := router.Match(&http.Request{URL: &url.URL{Path: "/"}, Host: host})
		if !ok {
			t.Fatalf("%s: expected route match", host)
		}
		if route.Upstream != want {
			t.Fatalf("%s: expected %q, got %q", host, want, route.Upstream)
		}
	}
}

func TestRouterNoMatch(t *testing.T) {
	router, err := NewRouter(&config.Config{
		Routes: []config.Route{{Match: config.RouteMatch{Host: "dev.local", PathPrefix: "/app/"}, Upstream: "app"}},
	})
	if err != nil {
		t.Fatalf("NewRouter error: %v", err)
	}

	if _, ok := router.Match(&http.Request{URL: &url.URL{Path: "/other/"}, Host: "dev.local"}); ok {
		t.Fatal("expected no match for other prefix")
	}
	if _, ok := router.Match(&http.Request{URL: &url.URL{Path: "/app/"}, Host: "other.local"}); ok {
		t.Fatal("expected no match for other host")
	}
	if _, ok := router.Match(nil); ok {
		t.Fatal("expected no match for nil request")
	}
}
