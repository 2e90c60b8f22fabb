package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests processed, by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	sessionsIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_sessions_issued_total",
		Help: "Token pairs issued, by flow.",
	}, []string{"flow"})

	reuseDetected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_refresh_reuse_detected_total",
		Help: "Refresh tokens presented after they stopped being live.",
	})

	authFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_failures_total",
		Help: "Rejected authentication attempts, by reason.",
	}, []string{"reason"})

	initOnce sync.Once
)

// InitMetrics registers the collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, sessionsIssued, reuseDetected, authFailures)
	})
}

// Middleware records request counts and latency.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// RecordSessionIssued counts a token pair handed out by flow (register, login, refresh, ...).
func RecordSessionIssued(flow string) {
	sessionsIssued.WithLabelValues(flow).Inc()
}

// RecordReuseDetected counts a mass invalidation triggered by refresh token reuse.
func RecordReuseDetected() {
	reuseDetected.Inc()
}

// RecordAuthFailure counts a rejected credential or token.
func RecordAuthFailure(reason string) {
	authFailures.WithLabelValues(reason).Inc()
}
