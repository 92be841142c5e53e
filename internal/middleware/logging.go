package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Logging Middleware
// One structured line per request, tagged with the restaurant it concerns.
// Voice webhooks name the tenant in the query string, dashboard routes in
// the path. Level follows the status code.
// ===========================================================================

// Logging logs every request.
func Logging(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		fields = append(fields, tenantFields(c)...)
		if user, ok := GetUser(c); ok {
			fields = append(fields, zap.String("user_id", user.ID.String()))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("request completed", fields...)
		case status >= 400:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

// tenantFields names the restaurant (or, failing that, the provider agent)
// a request is for.
func tenantFields(c *gin.Context) []zap.Field {
	if id := c.Param("restaurantId"); id != "" {
		return []zap.Field{zap.String("restaurant_id", id)}
	}
	if id := c.Query("restaurantId"); id != "" {
		return []zap.Field{zap.String("restaurant_id", id)}
	}
	if id := c.Query("agentId"); id != "" {
		return []zap.Field{zap.String("agent_id", id)}
	}
	return nil
}
