package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/canonroute/canonroute/internal/config"
	"github.com/canonroute/canonroute/internal/logging"
	"github.com/canonroute/canonroute/internal/observability"
	"github.com/canonroute/canonroute/internal/policy"
)

const upstreamTimeout = 30 * time.Second

// Gateway canonicalizes request paths and proxies canonical requests to the
// upstream of the matching route.
type Gateway struct {
	router  *Router
	proxies map[string]*httputil.ReverseProxy
	handler http.Handler

	logger      *slog.Logger
	decisionLog *logging.DecisionLogger
	metrics     *observability.Metrics
}

func New(cfg *config.Config, p *policy.Policy) (*Gateway, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if p == nil {
		return nil, errors.New("policy is required")
	}

	router, err := NewRouter(cfg)
	if err != nil {
		return nil, err
	}

	transport := newTransport(upstreamTimeout)
	proxies := make(map[string]*httputil.ReverseProxy, len(cfg.Upstreams))
	for _, upstream := range cfg.Upstreams {
		target, err := url.Parse(upstream.URL)
		if err != nil {
			return nil, fmt.Errorf("parse upstream %s: %w", upstream.Name, err)
		}
		proxy := httputil.NewSingleHostReverseProxy(target)
		proxy.Transport = transport
		proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			switch {
			case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
				http.Error(w, "upstream timeout", http.StatusGatewayTimeout)
			default:
				http.Error(w, "upstream error", http.StatusBadGateway)
			}
		}
		proxies[upstream.Name] = proxy
	}

	g := &Gateway{
		router:  router,
		proxies: proxies,
		logger:  slog.Default(),
	}
	g.handler = p.Middleware(http.HandlerFunc(g.proxy), policy.MiddlewareOptions{
		TrustForwardedProto: cfg.Server.TrustForwardedProto,
		Observer:            g.observe,
	})
	return g, nil
}

func (g *Gateway) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

func (g *Gateway) SetDecisionLogger(logger *logging.DecisionLogger) {
	g.decisionLog = logger
}

func (g *Gateway) SetMetrics(metrics *observability.Metrics) {
	g.metrics = metrics
}

type decisionKey struct{}

// ServeHTTP runs the redirect middleware in front of the proxy. Both record
// into the same decision entry, which is written once the response is done.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	decision := &logging.Decision{
		Timestamp: start.UTC(),
		RequestID: logging.NewRequestID(),
		ClientIP:  clientIP(r),
		Host:      r.Host,
		Method:    r.Method,
		Path:      r.URL.EscapedPath(),
		Query:     r.URL.RawQuery,
	}

	g.handler.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), decisionKey{}, decision)))
	g.writeDecision(*decision, start)
}

func decisionFrom(r *http.Request) *logging.Decision {
	if d, ok := r.Context().Value(decisionKey{}).(*logging.Decision); ok {
		return d
	}
	return &logging.Decision{}
}

func (g *Gateway) observe(r *http.Request, d policy.Decision) {
	decision := decisionFrom(r)
	decision.Steps = stepNames(d.Steps)
	decision.BlacklistRule = d.BlacklistRule

	if d.Redirect != nil {
		decision.Action = logging.ActionRedirect
		decision.Location = d.Redirect.Location
		decision.StatusCode = d.Redirect.StatusCode
		g.logger.Debug("canonical redirect",
			"path", decision.Path,
			"location", decision.Location,
			"status", decision.StatusCode,
			"steps", decision.Steps,
		)
		return
	}
	if d.BlacklistRule != "" {
		g.logger.Debug("blacklisted path", "path", decision.Path, "pattern", d.BlacklistRule)
	}
}

func (g *Gateway) proxy(w http.ResponseWriter, r *http.Request) {
	decision := decisionFrom(r)

	route, proxy, ok := g.resolveRoute(r)
	if !ok {
		decision.Action = logging.ActionNotFound
		decision.StatusCode = http.StatusNotFound
		http.NotFound(w, r)
		return
	}
	decision.RouteID = route.ID
	decision.Action = logging.ActionPass

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	upstreamStart := time.Now()
	proxy.ServeHTTP(rec, r)
	decision.StatusCode = rec.status
	decision.UpstreamMS = time.Since(upstreamStart).Milliseconds()
}

func (g *Gateway) resolveRoute(r *http.Request) (Route, *httputil.ReverseProxy, bool) {
	route, ok := g.router.Match(r)
	if !ok {
		return Route{}, nil, false
	}
	proxy, ok := g.proxies[route.Upstream]
	if !ok {
		return Route{}, nil, false
	}
	return route, proxy, true
}

func (g *Gateway) writeDecision(decision logging.Decision, start time.Time) {
	elapsed := time.Since(start)
	decision.DurationMS = elapsed.Milliseconds()
	if g.decisionLog != nil {
		if err := g.decisionLog.Write(decision); err != nil {
			g.logger.Warn("write decision log", "error", err)
		}
	}
	if g.metrics != nil {
		g.metrics.Observe(decision, elapsed)
	}
}

func stepNames(steps []policy.Step) []string {
	if len(steps) == 0 {
		return nil
	}
	out := make([]string, len(steps))
	for i, step := range steps {
		out[i] = string(step)
	}
	return out
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func newTransport(timeout time.Duration) *http.Transport {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
}
