package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"tableline/internal/dto"
	apperrors "tableline/internal/errors"
	"tableline/internal/middleware"
	"tableline/internal/models"
	"tableline/internal/services"
	"tableline/internal/voice"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Voice Handler
// Tool endpoints the voice agent calls during a phone call. Every reply
// carries a message the agent reads aloud, so business failures are 200 with
// success=false; only a broken request or a broken server is a 4xx/5xx.
// ===========================================================================

// SMSSender sends a text message and returns the provider message id.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// VoiceHandler serves the voice tool webhooks.
type VoiceHandler struct {
	reservations services.ReservationService
	orders       services.OrderService
	restaurants  services.RestaurantService
	agents       services.AgentService
	sms          SMSSender
	logger       *zap.Logger

	now func() time.Time
}

// NewVoiceHandler creates the handler. sms may be nil when texting is not
// configured.
func NewVoiceHandler(
	reservations services.ReservationService,
	orders services.OrderService,
	restaurants services.RestaurantService,
	agents services.AgentService,
	sms SMSSender,
	logger *zap.Logger,
) *VoiceHandler {
	return &VoiceHandler{
		reservations: reservations,
		orders:       orders,
		restaurants:  restaurants,
		agents:       agents,
		sms:          sms,
		logger:       logger.Named("voice"),
		now:          time.Now,
	}
}

// RegisterRoutes mounts the tool endpoints on rg (/webhooks/voice).
func (h *VoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reservations/create", h.CreateReservation)
	rg.POST("/reservations/edit", h.EditReservation)
	rg.POST("/reservations/cancel", h.CancelReservation)
	rg.POST("/reservations/search", h.SearchReservations)

	rg.POST("/orders/create", h.CreateOrder)
	rg.POST("/orders/edit", h.EditOrder)
	rg.POST("/orders/cancel", h.CancelOrder)
	rg.POST("/orders/search", h.SearchOrders)

	rg.POST("/datetime", h.CurrentDateTime)
	rg.POST("/menu", h.Menu)
	rg.POST("/sms", h.SendSMS)
}

// ===========================================================================
// Request plumbing
// ===========================================================================

// toolRequest is a decoded tool call with its tenant.
type toolRequest struct {
	restaurant *models.Restaurant
	call       *dto.CallInfo
}

// bind decodes the tool arguments into args and resolves the tenant. On
// failure the response is already written and ok is false.
func (h *VoiceHandler) bind(c *gin.Context, args any) (req toolRequest, ok bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.VoiceFail("I couldn't read that request."))
		return req, false
	}

	call, err := dto.DecodeToolArgs(body, args)
	if err != nil {
		var verr *dto.ValidationError
		if errors.As(err, &verr) {
			resp := dto.VoiceFail(voice.InvalidField(verr.Fields))
			resp.Fields = verr.Fields
			c.JSON(http.StatusBadRequest, resp)
			return req, false
		}
		h.logger.Warn("malformed tool call",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, dto.VoiceFail("I couldn't understand that request."))
		return req, false
	}

	restaurant, ok := h.resolveTenant(c, call)
	if !ok {
		return req, false
	}
	return toolRequest{restaurant: restaurant, call: call}, true
}

// resolveTenant finds the restaurant from the restaurantId query, the
// agentId query, or the agent id of the wrapped call, in that order.
func (h *VoiceHandler) resolveTenant(c *gin.Context, call *dto.CallInfo) (*models.Restaurant, bool) {
	ctx := c.Request.Context()

	var restaurantID uuid.UUID
	switch raw := strings.TrimSpace(c.Query("restaurantId")); {
	case raw != "":
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.VoiceFail(voice.MsgMissingTenant))
			return nil, false
		}
		restaurantID = id

	default:
		agentID := strings.TrimSpace(c.Query("agentId"))
		if agentID == "" && call != nil {
			agentID = call.AgentID
		}
		if agentID == "" {
			c.JSON(http.StatusBadRequest, dto.VoiceFail(voice.MsgMissingTenant))
			return nil, false
		}
		agent, err := h.agents.ResolveByProviderID(ctx, agentID)
		if err != nil {
			h.tenantError(c, err)
			return nil, false
		}
		restaurantID = agent.RestaurantID
	}

	restaurant, err := h.restaurants.Get(ctx, restaurantID)
	if err != nil {
		h.tenantError(c, err)
		return nil, false
	}
	return restaurant, true
}

func (h *VoiceHandler) tenantError(c *gin.Context, err error) {
	if apperrors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, dto.VoiceFail(voice.MsgUnknownTenant))
		return
	}
	h.logger.Error("resolve tenant",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, dto.VoiceFail(voice.MsgApology))
}

// fail writes a service error. Business failures keep the conversation
// going with a 200; anything else is a 500 with an apology.
func (h *VoiceHandler) fail(c *gin.Context, restaurantID uuid.UUID, err error) {
	if apperrors.IsDomain(err) {
		message := apperrors.Message(err, voice.MsgApology)
		if apperrors.Is(err, apperrors.ErrExhaustedRetries) {
			message = voice.MsgBusy
		}
		h.logger.Info("tool call rejected",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("restaurant_id", restaurantID.String()),
			zap.String("path", c.FullPath()),
			zap.String("code", apperrors.ErrorCode(err)),
			zap.String("reason", err.Error()),
		)
		c.JSON(http.StatusOK, dto.VoiceFail(message))
		return
	}

	h.logger.Error("tool call failed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, dto.VoiceFail(voice.MsgApology))
}

// ===========================================================================
// Reservations
// ===========================================================================

// CreateReservation books a table.
// POST /api/v1/webhooks/voice/reservations/create?restaurantId=...
func (h *VoiceHandler) CreateReservation(c *gin.Context) {
	var args dto.CreateReservationArgs
	req, ok := h.bind(c, &args)
	if !ok {
		return
	}

	reservation, err := h.reservations.Create(c.Request.Context(), req.restaurant.ID, services.CreateReservationInput{
		CustomerName:    args.CustomerName,
		CustomerPhone:   args.CustomerPhone,
		CustomerEmail:   args.CustomerEmail,
		Date:            args.Date,
		Time:            args.Time,
		PartySize:       args.PartySize,
		SpecialRequests: args.SpecialRequests,
	}, services.VoiceAgentActor())
	if err != nil {
		h.fail(c, req.restaurant.ID, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReservationReply(reservation, voice.ReservationConfirmed(reservation)))
}

// EditReservation changes the supplied fields of a reservation.
// POST /api/v1/webhooks/voice/reservations/edit
func (h *VoiceHandler) EditReservation(c *gin.Context) {
	var args dto.EditReservationArgs
	req, ok := h.bind(c, &args)
	if !ok {
		return
	}

	reservation, err := h.reservations.Update(c.Request.Context(), req.restaurant.ID, args.ReservationNumber, services.UpdateReservationInput{
		CustomerName:    args.CustomerName,
		CustomerPhone:   args.CustomerPhone,
		CustomerEmail:   args.CustomerEmail,
		Date:            args.Date,
		Time:            args.Time,
		PartySize:       args.PartySize,
		SpecialRequests: args.SpecialRequests,
	}, services.VoiceAgentActor())
	if err != nil {
		h.fail(c, req.restaurant.ID, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReservationReply(reservation, voice.ReservationUpdated(reservation)))
}

// CancelReservation cancels a reservation.
// POST /api/v1/webhooks/voice/reservations/cancel
func (h *VoiceHandler) CancelReservation(c *gin.Context) {
	var args dto.CancelReservationArgs
	req, ok := h.bind(c, &args)
	if !ok {
		return
	}

	reservation, err := h.reservations.Cancel(c.Request.Context(), req.restaurant.ID, args.ReservationNumber, services.VoiceAgentActor())
	if err != nil {
		h.fail(c, req.restaurant.ID, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReservationReply(reservation, voice.ReservationCancelled(reservation)))
}

// SearchReservations finds reservations by name, phone or date.
// POST /api/v1/webhooks/voice/reservations/search
func (h *VoiceHandler) SearchReservations(c *gin.Context) {
	var args dto.SearchArgs
	req, ok := h.bind(c, &args)
	if !ok {
		return
	}

	found, err := h.reservations.Search(c.Request.Context(), req.restaurant.ID, services.SearchQuery{
		Name:  args.Name,
		Phone: args.Phone,
		Date:  args.Date,
	})
	if err != nil {
		h.fail(c, req.restaurant.ID, err)
		return
	}

	resp := dto.VoiceOK(voice.ReservationSearchResults(found))
	resp.Results = found
	c.JSON(http.StatusOK, resp)
}

// ===========================================================================
// Orders
// ===========================================================================

// CreateOrder places a to-go order.
// POST /api/v1/webhooks/voice/orders/create
func (h *VoiceHandler) CreateOrder(c *gin.Context) {
	var args dto.CreateOrderArgs
	req, ok := h.bind(c, &args)
	if !ok {
		return
	}

	order, err := h.orders.Create(c.Request.Context(), req.restaurant.ID, services.CreateOrderInput{
		CustomerName:        args.CustomerName,
		CustomerPhone:       args.CustomerPhone,
		CustomerEmail:       args.CustomerEmail,
		Items:               args.Items,
		PickupDate:          args.PickupDate,
		PickupTime:          args.PickupTime,
		SpecialInstructions: args.SpecialInstructions,
	}, services.VoiceAgentActor())
	if err != nil {
		h.fail(c, req.restaurant.ID, err)
		return
	}

	c.JSON(http.StatusOK, dto.OrderReply(order, voice.OrderConfirmed(order)))
}

// EditOrder changes the supplied fields of an order.
// POST /api/v1/webhooks/voice/orders/edit
func (h *VoiceHandler) EditOrder(c *gin.Context) {
	var args dto.EditOrderArgs
	req, ok := h.bind(c, &args)
	if !ok {
		return
	}

	order, err := h.orders.Update(c.Request.Context(), req.restaurant.ID, args.OrderNumber, services.UpdateOrderInput{
		CustomerName:        args.CustomerName,
		CustomerPhone:       args.CustomerPhone,
		CustomerEmail:       args.CustomerEmail,
		Items:               args.Items,
		PickupDate:          args.PickupDate,
		PickupTime:          args.PickupTime,
		SpecialInstructions: args.SpecialInstructions,
	}, services.VoiceAgentActor())
	if err != nil {
		h.fail(c, req.restaurant.ID, err)
		return
	}

	c.JSON(http.StatusOK, dto.OrderReply(order, voice.OrderUpdated(order)))
}

// CancelOrder cancels an order.
// POST /api/v1/webhooks/voice/orders/cancel
func (h *VoiceHandler) CancelOrder(c *gin.Context) {
	var args dto.CancelOrderArgs
	req, ok := h.bind(c, &args)
	if !ok {
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), req.restaurant.ID, args.OrderNumber, services.VoiceAgentActor())
	if err != nil {
		h.fail(c, req.restaurant.ID, err)
		return
	}

	c.JSON(http.StatusOK, dto.OrderReply(order, voice.OrderCancelled(order)))
}

// SearchOrders finds orders by name, phone or pickup date.
// POST /api/v1/webhooks/voice/orders/search
func (h *VoiceHandler) SearchOrders(c *gin.Context) {
	var args dto.SearchArgs
	req, ok := h.bind(c, &args)
	if !ok {
		return
	}

	found, err := h.orders.Search(c.Request.Context(), req.restaurant.ID, services.SearchQuery{
		Name:  args.Name,
		Phone: args.Phone,
		Date:  args.Date,
	})
	if err != nil {
		h.fail(c, req.restaurant.ID, err)
		return
	}

	resp := dto.VoiceOK(voice.OrderSearchResults(found))
	resp.Results = found
	c.JSON(http.StatusOK, resp)
}

// ===========================================================================
// Utilities
// ===========================================================================

// CurrentDateTime tells the agent the date and time at the restaurant.
// POST /api/v1/webhooks/voice/datetime
func (h *VoiceHandler) CurrentDateTime(c *gin.Context) {
	var args struct{}
	req, ok := h.bind(c, &args)
	if !ok {
		return
	}

	loc := req.restaurant.Location()
	now := h.now().In(loc)

	resp := dto.VoiceOK("It is currently " + voice.Now(now, loc) + ".")
	resp.CurrentDate = now.Format(models.DateLayout)
	resp.CurrentTime = now.Format(models.TimeLayout)
	resp.Timezone = loc.String()
	c.JSON(http.StatusOK, resp)
}

// Menu reads out the available dishes.
// POST /api/v1/webhooks/voice/menu
func (h *VoiceHandler) Menu(c *gin.Context) {
	var args struct{}
	req, ok := h.bind(c, &args)
	if !ok {
		return
	}

	items, err := h.restaurants.Menu(c.Request.Context(), req.restaurant.ID)
	if err != nil {
		h.fail(c, req.restaurant.ID, err)
		return
	}

	c.JSON(http.StatusOK, dto.VoiceOK(voice.FormatMenu(items)))
}

// SendSMS texts the caller.
// POST /api/v1/webhooks/voice/sms
func (h *VoiceHandler) SendSMS(c *gin.Context) {
	var args dto.SendSMSArgs
	req, ok := h.bind(c, &args)
	if !ok {
		return
	}

	if h.sms == nil {
		c.JSON(http.StatusOK, dto.VoiceFail("I'm not able to send text messages right now."))
		return
	}

	sid, err := h.sms.SendSMS(c.Request.Context(), args.To, args.Message)
	if err != nil {
		h.logger.Warn("send sms",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("restaurant_id", req.restaurant.ID.String()),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, dto.VoiceFail("I couldn't send the text message. Please double-check the number."))
		return
	}

	h.logger.Info("sms sent",
		zap.String("restaurant_id", req.restaurant.ID.String()),
		zap.String("sid", sid),
	)
	c.JSON(http.StatusOK, dto.VoiceOK("I've sent you a text message."))
}
