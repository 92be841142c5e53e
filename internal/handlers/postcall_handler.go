package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"tableline/internal/dto"
	apperrors "tableline/internal/errors"
	"tableline/internal/middleware"
	"tableline/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Post-call Handler
// The provider posts call lifecycle events here. A finished call is turned
// into a call summary for the restaurant's admins.
// ===========================================================================

// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Webhook-Signature"

// PostCallHandler receives post-call webhooks.
type PostCallHandler struct {
	calls  services.CallService
	secret string
	logger *zap.Logger
}

// NewPostCallHandler creates the handler. An empty secret disables
// signature verification.
func NewPostCallHandler(calls services.CallService, secret string, logger *zap.Logger) *PostCallHandler {
	return &PostCallHandler{
		calls:  calls,
		secret: secret,
		logger: logger.Named("postcall"),
	}
}

// RegisterRoutes mounts the endpoint on rg (/webhooks/voice).
func (h *PostCallHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/post-call", h.Handle)
}

// Handle verifies and processes a post-call event.
// POST /api/v1/webhooks/voice/post-call
func (h *PostCallHandler) Handle(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Cannot read body"))
		return
	}

	if h.secret != "" && !VerifySignature(h.secret, body, c.GetHeader(SignatureHeader)) {
		h.logger.Warn("invalid post-call signature", zap.String("request_id", requestID))
		c.JSON(http.StatusUnauthorized, dto.Error("INVALID_SIGNATURE", "Invalid signature"))
		return
	}

	var req dto.PostCallRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid JSON body"))
		return
	}

	handled, err := h.calls.ReportCall(c.Request.Context(), req.Event, req.Call)
	if err != nil {
		status, resp := dto.ErrorFromErr(err)
		if status >= http.StatusInternalServerError && !apperrors.IsDomain(err) {
			h.logger.Error("post-call failed",
				zap.String("request_id", requestID),
				zap.String("call_id", req.Call.CallID),
				zap.Error(err),
			)
		} else {
			h.logger.Info("post-call rejected",
				zap.String("request_id", requestID),
				zap.String("call_id", req.Call.CallID),
				zap.String("reason", err.Error()),
			)
		}
		c.JSON(status, resp)
		return
	}

	if !handled {
		h.logger.Debug("post-call event ignored",
			zap.String("event", req.Event),
			zap.String("call_id", req.Call.CallID),
		)
	}
	c.JSON(http.StatusOK, dto.VoiceOK(""))
}

// VerifySignature checks a hex HMAC-SHA256 of body, with or without a
// "sha256=" prefix, in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
