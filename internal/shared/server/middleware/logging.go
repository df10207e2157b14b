package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"probate-backend/internal/shared/metrics"
	"probate-backend/internal/shared/telemetry"
)

// Logging emits a structured log and a latency observation per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), status, latency)

		caseID, _ := c.Get("caseId")
		documentID, _ := c.Get("documentId")
		statusTransition := ""
		if raw, ok := c.Get("statusTransition"); ok {
			if s, ok := raw.(string); ok {
				statusTransition = s
			}
		}

		fields := map[string]any{
			"request_id":        reqID,
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            status,
			"status_transition": statusTransition,
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"user_id":           UserIDFromContext(c),
			"case_id":           caseID,
			"document_id":       documentID,
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		}
		if s, ok := SessionFromContext(c); ok {
			fields["role"] = string(s.Role)
		}
		telemetry.Info("request.complete", fields)
	}
}
