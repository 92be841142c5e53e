package handlers

import (
	"net/http"

	"tableline/internal/access"
	"tableline/internal/dto"
	"tableline/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Reservation Handler
// ===========================================================================

// ReservationHandler serves the dashboard reservation endpoints.
type ReservationHandler struct {
	guard
	reservations services.ReservationService
}

// NewReservationHandler creates the handler.
func NewReservationHandler(reservations services.ReservationService, accounts services.AccountService, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		guard:        guard{accounts: accounts, logger: logger.Named("reservations")},
		reservations: reservations,
	}
}

// RegisterRoutes mounts the routes on rg (/restaurants/:restaurantId).
func (h *ReservationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reservations := rg.Group("/reservations")
	{
		reservations.GET("", h.List)
		reservations.POST("", h.Create)
		reservations.GET("/:number", h.Get)
		reservations.PATCH("/:number", h.Update)
		reservations.DELETE("/:number", h.Delete)
		reservations.POST("/:number/cancel", h.Cancel)
	}
}

// List returns a page of reservations.
// GET /api/v1/restaurants/:restaurantId/reservations?date=2025-12-24
func (h *ReservationHandler) List(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceReservations, access.ActionRead)
	if !ok {
		return
	}

	var query dto.ListRecordsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	reservations, total, err := h.reservations.List(c.Request.Context(), restaurantID, query.FindOptions("date"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessWithMeta(reservations, dto.NewMeta(query.Page, query.Limit, total)))
}

// Get returns one reservation.
// GET /api/v1/restaurants/:restaurantId/reservations/:number
func (h *ReservationHandler) Get(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceReservations, access.ActionRead)
	if !ok {
		return
	}

	reservation, err := h.reservations.Get(c.Request.Context(), restaurantID, c.Param("number"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(reservation))
}

// Create enters a reservation from the dashboard.
// POST /api/v1/restaurants/:restaurantId/reservations
func (h *ReservationHandler) Create(c *gin.Context) {
	restaurantID, user, ok := h.authorize(c, access.ResourceReservations, access.ActionWrite)
	if !ok {
		return
	}

	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	reservation, err := h.reservations.Create(c.Request.Context(), restaurantID, services.CreateReservationInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		Date:            req.Date,
		Time:            req.Time,
		PartySize:       req.PartySize,
		SpecialRequests: req.SpecialRequests,
	}, services.DashboardActor(user.Email))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Success(reservation))
}

// Update edits the supplied fields.
// PATCH /api/v1/restaurants/:restaurantId/reservations/:number
func (h *ReservationHandler) Update(c *gin.Context) {
	restaurantID, user, ok := h.authorize(c, access.ResourceReservations, access.ActionWrite)
	if !ok {
		return
	}

	var req dto.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	reservation, err := h.reservations.Update(c.Request.Context(), restaurantID, c.Param("number"), services.UpdateReservationInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		Date:            req.Date,
		Time:            req.Time,
		PartySize:       req.PartySize,
		SpecialRequests: req.SpecialRequests,
	}, services.DashboardActor(user.Email))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(reservation))
}

// Cancel cancels a reservation.
// POST /api/v1/restaurants/:restaurantId/reservations/:number/cancel
func (h *ReservationHandler) Cancel(c *gin.Context) {
	restaurantID, user, ok := h.authorize(c, access.ResourceReservations, access.ActionWrite)
	if !ok {
		return
	}

	reservation, err := h.reservations.Cancel(c.Request.Context(), restaurantID, c.Param("number"), services.DashboardActor(user.Email))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(reservation))
}

// Delete removes a reservation permanently.
// DELETE /api/v1/restaurants/:restaurantId/reservations/:number
func (h *ReservationHandler) Delete(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceReservations, access.ActionDelete)
	if !ok {
		return
	}

	if err := h.reservations.Delete(c.Request.Context(), restaurantID, c.Param("number")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(nil))
}
