package respond

import (
	"github.com/gin-gonic/gin"

	"clearance-backend/internal/shared/telemetry"
)

// ErrorBody is the payload of every failed request: a stable machine code,
// a human message and optional per-field details.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the {"error": {...}} envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error logs the failure and aborts the chain with the error envelope.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"route":      route(c),
		"request_id": c.GetString("requestId"),
	}
	for ctxKey, field := range map[string]string{"userId": "user_id", "role": "role", "studentId": "student_id"} {
		if v := c.GetString(ctxKey); v != "" {
			fields[field] = v
		}
	}
	telemetry.ForStatus(status)("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

func route(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return c.Request.Method + " " + p
	}
	return c.Request.Method + " " + c.Request.URL.Path
}
