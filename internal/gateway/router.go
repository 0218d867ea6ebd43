package gateway

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/canonroute/canonroute/internal/config"
	"golang.org/x/net/idna"
)

type Route struct {
	ID string
	// Host is an exact hostname or a single-label wildcard such as
	// "*.example.com". Empty matches any host.
	Host       string
	PathPrefix string
	Upstream   string
}

// Router picks the route with the longest matching path prefix. Exact host
// routes win over wildcard routes, which win over host-less routes.
type Router struct {
	routes []Route
}

func NewRouter(cfg *config.Config) (*Router, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	routes := make([]Route, 0, len(cfg.Routes))
	for i, route := range cfg.Routes {
		routes = append(routes, Route{
			ID:         fmt.Sprintf("route-%d", i),
			Host:       normalizeHostPattern(route.Match.Host),
			PathPrefix: route.Match.PathPrefix,
			Upstream:   route.Upstream,
		})
	}

	sort.SliceStable(routes, func(i, j int) bool {
		if len(routes[i].PathPrefix) != len(routes[j].PathPrefix) {
			return len(routes[i].PathPrefix) > len(routes[j].PathPrefix)
		}
		if hostRank(routes[i].Host) != hostRank(routes[j].Host) {
			return hostRank(routes[i].Host) > hostRank(routes[j].Host)
		}
		return routes[i].ID < routes[j].ID
	})

	return &Router{routes: routes}, nil
}

func (r *Router) Match(req *http.Request) (Route, bool) {
	if req == nil || req.URL == nil {
		return Route{}, false
	}

	host := normalizeHost(stripPort(req.Host))
	path := req.URL.Path

	for _, route := range r.routes {
		if !hostMatches(route.Host, host) {
			continue
		}
		if strings.HasPrefix(path, route.PathPrefix) {
			return route, true
		}
	}

	return Route{}, false
}

func hostMatches(pattern, host string) bool {
	switch {
	case pattern == "":
		return true
	case strings.HasPrefix(pattern, "*."):
		label, rest, ok := strings.Cut(host, ".")
		return ok && label != "" && "."+rest == pattern[1:]
	default:
		return pattern == host
	}
}

func hostRank(pattern string) int {
	switch {
	case pattern == "":
		return 0
	case strings.HasPrefix(pattern, "*."):
		return 1
	default:
		return 2
	}
}

// normalizeHost converts a hostname to lower-case ASCII.
func normalizeHost(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if host == "" {
		return ""
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil || ascii == "" {
		ascii = host
	}
	return strings.ToLower(ascii)
}

func normalizeHostPattern(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	if base, ok := strings.CutPrefix(pattern, "*."); ok {
		if base = normalizeHost(base); base == "" {
			return ""
		}
		return "*." + base
	}
	return normalizeHost(pattern)
}

func stripPort(hostport string) string {
	if hostport == "" {
		return ""
	}

	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}

	return hostport
}
