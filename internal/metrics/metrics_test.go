package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareIncrementsCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)

	InitMetrics()

	r := gin.New()
	r.Use(Middleware())
	r.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("/test", http.MethodGet, "200"))

	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("/test", http.MethodGet, "200"))
	if after != before+1 {
		t.Fatalf("expected request counter to grow by 1, got %v -> %v", before, after)
	}
}

func TestAuthCounters(t *testing.T) {
	InitMetrics()

	before := testutil.ToFloat64(reuseDetected)
	RecordReuseDetected()
	if got := testutil.ToFloat64(reuseDetected); got != before+1 {
		t.Fatalf("expected reuse counter %v, got %v", before+1, got)
	}

	RecordSessionIssued("login")
	if got := testutil.ToFloat64(sessionsIssued.WithLabelValues("login")); got < 1 {
		t.Fatalf("expected login sessions to be counted, got %v", got)
	}
}

func TestRegisterExposesMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	InitMetrics()
	RecordAuthFailure("invalid_credentials")

	r := gin.New()
	Register(r, "/metrics")

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "auth_failures_total") {
		t.Fatalf("expected auth_failures_total in exposition")
	}
}
