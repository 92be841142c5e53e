package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"tableline/internal/dto"
	"tableline/internal/voice"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Recovery Middleware
// A panic becomes a 500. Voice webhooks get the spoken apology instead of
// the dashboard error envelope, so the agent still has something to say.
// ===========================================================================

// VoiceWebhookPrefix is the route prefix of the voice tool webhooks.
const VoiceWebhookPrefix = "/api/v1/webhooks/voice/"

// Recovery catches panics in handlers.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.String("request_id", GetRequestID(c)),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.String("stack", string(debug.Stack())),
				)

				if strings.HasPrefix(c.Request.URL.Path, VoiceWebhookPrefix) {
					c.AbortWithStatusJSON(http.StatusInternalServerError, dto.VoiceFail(voice.MsgApology))
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Error(
					"INTERNAL_ERROR",
					"An internal error occurred",
				))
			}
		}()

		c.Next()
	}
}
