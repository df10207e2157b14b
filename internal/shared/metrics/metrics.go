package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route", "status"},
	)

	formsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forms_generation_total",
			Help: "Form generation proxy calls by outcome",
		},
		[]string{"outcome"},
	)

	formsUpstreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forms_upstream_duration_seconds",
			Help:    "Latency of the remote form generation service",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	checkoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout sessions created by outcome",
		},
		[]string{"outcome"},
	)

	phaseAdvances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "case_phase_advances_total",
			Help: "Case phase advances by destination phase",
		},
		[]string{"phase"},
	)

	eventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_processed_total",
			Help: "Lifecycle events handled by the worker by outcome",
		},
		[]string{"outcome"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter by rule group",
		},
		[]string{"group"},
	)

	writeConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "case_write_conflicts_total",
			Help: "Case writes rejected by the version check",
		},
	)
)

// ObserveHTTPRequest records one request duration.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// IncFormsGenerated counts a forms proxy outcome (json, pdf, zip, upstream_error).
func IncFormsGenerated(outcome string) {
	formsGenerated.WithLabelValues(outcome).Inc()
}

// ObserveFormsUpstream records the upstream forms call latency.
func ObserveFormsUpstream(d time.Duration) {
	formsUpstreamDuration.Observe(d.Seconds())
}

// IncCheckoutSession counts a checkout session outcome.
func IncCheckoutSession(outcome string) {
	checkoutSessions.WithLabelValues(outcome).Inc()
}

// IncPhaseAdvance counts a phase advance into phase.
func IncPhaseAdvance(phase int) {
	phaseAdvances.WithLabelValues(strconv.Itoa(phase)).Inc()
}

// IncWriteConflict counts a rejected stale write.
func IncWriteConflict() {
	writeConflicts.Inc()
}

// IncEventProcessed counts a worker outcome (completed, failed, dropped).
func IncEventProcessed(outcome string) {
	eventsProcessed.WithLabelValues(outcome).Inc()
}

// IncRateLimited counts a request rejected for group.
func IncRateLimited(group string) {
	rateLimited.WithLabelValues(group).Inc()
}

// RegisterDBStats exports connection pool stats for pool. Only the first
// pool registered in a process is exported.
func RegisterDBStats(pool *sql.DB) {
	if pool == nil {
		return
	}
	_ = prometheus.Register(collectors.NewDBStatsCollector(pool, "probate"))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
