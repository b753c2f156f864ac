package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitLoginBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.POST("/api/v1/admin/login", RateLimit("login", RateLimitRule{Rate: 0.5, Burst: 2}, limiter), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", nil)
		req.RemoteAddr = ip + ":40000"
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	for i := 0; i < 2; i++ {
		if resp := do("10.0.0.1"); resp.Code != http.StatusOK {
			t.Fatalf("attempt %d expected 200, got %d", i+1, resp.Code)
		}
	}
	resp := do("10.0.0.1")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "2" {
		t.Fatalf("expected Retry-After 2, got %q", resp.Header().Get("Retry-After"))
	}

	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != "rate_limited" || payload.Error.Details["scope"] != "login" {
		t.Fatalf("unexpected error body: %+v", payload)
	}

	if resp := do("10.0.0.2"); resp.Code != http.StatusOK {
		t.Fatalf("other callers keep their own bucket, got %d", resp.Code)
	}

	now = now.Add(2 * time.Second)
	if resp := do("10.0.0.1"); resp.Code != http.StatusOK {
		t.Fatalf("expected a token after refill, got %d", resp.Code)
	}
}

func TestRateLimiterPrunesRefilledBuckets(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 5}

	limiter.Allow("a", rule)
	limiter.Allow("b", rule)
	if limiter.Size() != 2 {
		t.Fatalf("expected 2 buckets, got %d", limiter.Size())
	}

	now = now.Add(10 * time.Second)
	limiter.Allow("c", rule)
	if limiter.Size() != 1 {
		t.Fatalf("expected idle buckets to be pruned, got %d", limiter.Size())
	}
}

func TestRateLimiterDisabledRule(t *testing.T) {
	limiter := NewRateLimiter(nil)
	for i := 0; i < 100; i++ {
		if ok, _ := limiter.Allow("k", RateLimitRule{}); !ok {
			t.Fatalf("zero rule should never throttle")
		}
	}
}
