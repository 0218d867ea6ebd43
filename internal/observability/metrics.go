package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/canonroute/canonroute/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	redirectsTotal     *prometheus.CounterVec
	blacklistHitsTotal *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "canonroute_requests_total", Help: "Total requests"},
			[]string{"route", "action", "code"},
		),
		redirectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "canonroute_redirects_total", Help: "Redirects by canonicalization step"},
			[]string{"step"},
		),
		blacklistHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "canonroute_blacklist_hits_total", Help: "Requests exempted by a blacklist rule"},
			[]string{"pattern"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "canonroute_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "action"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.requestsTotal,
		m.redirectsTotal,
		m.blacklistHitsTotal,
		m.requestDuration,
	)

	return m
}

func (m *Metrics) Handler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Observe(decision logging.Decision, duration time.Duration) {
	if m == nil {
		return
	}

	route := decision.RouteID
	if route == "" {
		route = "none"
	}

	m.requestsTotal.WithLabelValues(route, decision.Action, strconv.Itoa(decision.StatusCode)).Inc()
	m.requestDuration.WithLabelValues(route, decision.Action).Observe(duration.Seconds())

	if decision.Action == logging.ActionRedirect {
		for _, step := range decision.Steps {
			m.redirectsTotal.WithLabelValues(step).Inc()
		}
	}

	if decision.BlacklistRule != "" {
		m.blacklistHitsTotal.WithLabelValues(decision.BlacklistRule).Inc()
	}
}
