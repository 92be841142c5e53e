package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	return r
}

func TestRequestID(t *testing.T) {
	r := newEngine()
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("a", 500))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Body.String(), 36)
}

func TestRecovery_VoiceRoutesApologize(t *testing.T) {
	r := newEngine()
	r.POST(VoiceWebhookPrefix+"menu", func(c *gin.Context) { panic("boom") })
	r.GET("/api/v1/me", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, VoiceWebhookPrefix+"menu", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	var voice map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &voice))
	assert.Equal(t, false, voice["success"])
	assert.Contains(t, voice["message"], "sorry")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	var dash map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Equal(t, "INTERNAL_ERROR", dash["error"].(map[string]any)["code"])
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("abc"))
}

func TestLogging_TagsTenant(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logging(zap.New(core)))
	r.POST("/webhooks/voice/orders/create", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/restaurants/:restaurantId/orders", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, target := range []string{
		"/webhooks/voice/orders/create?restaurantId=r-query",
		"/webhooks/voice/orders/create?agentId=agent_1",
		"/restaurants/r-path/orders",
		"/health",
	} {
		method := http.MethodPost
		if !strings.HasPrefix(target, "/webhooks") {
			method = http.MethodGet
		}
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, target, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, "r-query", entries[0].ContextMap()["restaurant_id"])
	assert.Equal(t, "agent_1", entries[1].ContextMap()["agent_id"])

	assert.Equal(t, "r-path", entries[2].ContextMap()["restaurant_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "/restaurants/:restaurantId/orders", entries[2].ContextMap()["route"])

	assert.NotContains(t, entries[3].ContextMap(), "restaurant_id")
	assert.NotContains(t, entries[3].ContextMap(), "agent_id")
}
