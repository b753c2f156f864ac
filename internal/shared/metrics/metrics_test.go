package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(statusUpdatesTotal)
	IncStatusUpdate()
	if got := testutil.ToFloat64(statusUpdatesTotal); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}

	beforeLib := testutil.ToFloat64(departmentChangesTotal.WithLabelValues("library", "true"))
	IncDepartmentChange("library", true)
	if got := testutil.ToFloat64(departmentChangesTotal.WithLabelValues("library", "true")); got != beforeLib+1 {
		t.Fatalf("expected %v, got %v", beforeLib+1, got)
	}
}

func TestHandlerRendersPrometheusText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncNotificationEmitted("message")
	ObserveRequest(http.MethodGet, "/api/v1/health", http.StatusOK, 12)

	r := gin.New()
	r.GET("/metrics", Handler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, name := range []string{"notifications_emitted_total", "http_request_duration_ms_bucket"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}
