package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ===========================================================================
// Request ID Middleware
// Every request gets an ID, echoed in the response header and attached to
// every log line of the request.
// ===========================================================================

const (
	// RequestIDKey gin context key
	RequestIDKey = "request_id"

	// RequestIDHeader request and response header
	RequestIDHeader = "X-Request-ID"
)

// maxRequestIDLength caps client-supplied IDs.
const maxRequestIDLength = 128

// RequestID reuses the client's X-Request-ID or generates a UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID returns the request ID, or "" outside the middleware.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
