package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clearance-backend/internal/shared/metrics"
	"clearance-backend/internal/shared/telemetry"
)

// Logging writes one "request.complete" line per request and feeds the
// request histogram. Preflights are skipped.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, status, elapsed)

		fields := map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"route":             route,
			"status":            status,
			"duration_ms":       elapsed,
			"user_id":           UserIDFromContext(c),
			"role":              RoleFromContext(c),
			"student_id":        c.GetString("studentId"),
			"status_transition": c.GetString("statusTransition"),
			"client_ip":         c.ClientIP(),
		}
		if n := len(c.Errors); n > 0 {
			fields["errors"] = c.Errors.String()
		}
		if status >= http.StatusInternalServerError {
			telemetry.Error("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
