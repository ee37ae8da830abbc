// internal/app/system/metrics/metrics.go

// Package metrics collects Prometheus metrics and exposes them for
// scraping. Handlers record auth outcomes; the HTTP middleware records
// request counts and latency per route.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the application's Prometheus metrics.
type Collector struct {
	signinSuccess prometheus.Counter
	signinFail    *prometheus.CounterVec
	signupTotal   prometheus.Counter
	tokensIssued  prometheus.Counter
	tokensRevoked prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signinSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accord_signin_success_total",
			Help: "Successful sign-ins.",
		}),
		signinFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accord_signin_fail_total",
			Help: "Failed sign-ins by reason.",
		}, []string{"reason"}),
		signupTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accord_signup_total",
			Help: "Accounts created.",
		}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accord_tokens_issued_total",
			Help: "Bearer tokens issued.",
		}),
		tokensRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accord_tokens_revoked_total",
			Help: "Bearer tokens revoked at sign-out.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accord_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accord_http_request_seconds",
			Help:    "HTTP request latency in seconds by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.signinSuccess,
		c.signinFail,
		c.signupTotal,
		c.tokensIssued,
		c.tokensRevoked,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

// RecordSigninSuccess counts a successful sign-in.
func (c *Collector) RecordSigninSuccess() { c.signinSuccess.Inc() }

// RecordSigninFailure counts a failed sign-in. reason is a small fixed
// set ("bad_credentials", "rate_limited", "disabled").
func (c *Collector) RecordSigninFailure(reason string) {
	c.signinFail.WithLabelValues(reason).Inc()
}

// RecordSignup counts an account creation.
func (c *Collector) RecordSignup() { c.signupTotal.Inc() }

// RecordTokenIssued counts a bearer token issue.
func (c *Collector) RecordTokenIssued() { c.tokensIssued.Inc() }

// RecordTokenRevoked counts a bearer token revocation.
func (c *Collector) RecordTokenRevoked() { c.tokensRevoked.Inc() }

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency. Routes are labeled by
// chi's route pattern so path parameters do not explode cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		c.httpRequests.WithLabelValues(route, strconv.Itoa(sr.status)).Inc()
		c.httpLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the scrape endpoint handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
