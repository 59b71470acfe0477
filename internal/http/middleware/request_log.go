package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adlnet/edlm-portal-backend/internal/pkg/ctxutil"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

// RequestLogger writes one line per request once the handler chain returns,
// tagged with the plan resource and row it touched. Writes to goal-bearing
// resources carry elrr_sync=true so failed sagas are easy to find.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		route := c.FullPath()
		resource := resourceOf(route)
		method := strings.ToUpper(c.Request.Method)

		fields := []interface{}{
			"method", method,
			"route", route,
			"resource", resource,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, "resource_id", id)
		}
		for _, key := range parentFilters {
			if v := c.Query(key); v != "" {
				fields = append(fields, key, v)
			}
		}
		if syncedResources[resource] && isWrite(method) {
			fields = append(fields, "elrr_sync", true)
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
			fields = append(fields, "user_id", rd.UserID.String())
		}
		if status >= 400 {
			fields = append(fields, "error_code", errorCode(c))
		}

		switch {
		case resource == "healthcheck" || resource == "readyz" || resource == "metrics":
			log.Debug("HTTP request", fields...)
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
