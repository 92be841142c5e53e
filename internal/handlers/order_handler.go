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
// Order Handler
// Dashboard endpoints for to-go orders
// ===========================================================================

// OrderHandler serves the dashboard order endpoints.
type OrderHandler struct {
	guard
	orders services.OrderService
}

// NewOrderHandler creates the handler.
func NewOrderHandler(orders services.OrderService, accounts services.AccountService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		guard:  guard{accounts: accounts, logger: logger.Named("orders")},
		orders: orders,
	}
}

// RegisterRoutes mounts the routes on rg (/restaurants/:restaurantId).
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.List)
		orders.POST("", h.Create)
		orders.GET("/:number", h.Get)
		orders.PATCH("/:number", h.Update)
		orders.DELETE("/:number", h.Delete)
		orders.POST("/:number/cancel", h.Cancel)
		orders.PATCH("/:number/status", h.ChangeStatus)
	}
}

// List returns a page of orders.
// GET /api/v1/restaurants/:restaurantId/orders?status=confirmed&page=1&limit=20
func (h *OrderHandler) List(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceOrders, access.ActionRead)
	if !ok {
		return
	}

	var query dto.ListRecordsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	orders, total, err := h.orders.List(c.Request.Context(), restaurantID, query.FindOptions("pickup_date"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessWithMeta(orders, dto.NewMeta(query.Page, query.Limit, total)))
}

// Get returns one order with its history.
// GET /api/v1/restaurants/:restaurantId/orders/:number
func (h *OrderHandler) Get(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceOrders, access.ActionRead)
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(), restaurantID, c.Param("number"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(order))
}

// Create enters an order from the dashboard.
// POST /api/v1/restaurants/:restaurantId/orders
func (h *OrderHandler) Create(c *gin.Context) {
	restaurantID, user, ok := h.authorize(c, access.ResourceOrders, access.ActionWrite)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), restaurantID, services.CreateOrderInput{
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		CustomerEmail:       req.CustomerEmail,
		Items:               req.Items,
		PickupDate:          req.PickupDate,
		PickupTime:          req.PickupTime,
		SpecialInstructions: req.SpecialInstructions,
	}, services.DashboardActor(user.Email))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Success(order))
}

// Update edits the supplied fields.
// PATCH /api/v1/restaurants/:restaurantId/orders/:number
func (h *OrderHandler) Update(c *gin.Context) {
	restaurantID, user, ok := h.authorize(c, access.ResourceOrders, access.ActionWrite)
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.orders.Update(c.Request.Context(), restaurantID, c.Param("number"), services.UpdateOrderInput{
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		CustomerEmail:       req.CustomerEmail,
		Items:               req.Items,
		PickupDate:          req.PickupDate,
		PickupTime:          req.PickupTime,
		SpecialInstructions: req.SpecialInstructions,
	}, services.DashboardActor(user.Email))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(order))
}

// Cancel cancels an order.
// POST /api/v1/restaurants/:restaurantId/orders/:number/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	restaurantID, user, ok := h.authorize(c, access.ResourceOrders, access.ActionWrite)
	if !ok {
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), restaurantID, c.Param("number"), services.DashboardActor(user.Email))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(order))
}

// ChangeStatus moves an order through the kitchen states.
// PATCH /api/v1/restaurants/:restaurantId/orders/:number/status
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	restaurantID, user, ok := h.authorize(c, access.ResourceOrders, access.ActionWrite)
	if !ok {
		return
	}

	var req dto.ChangeOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.orders.ChangeStatus(c.Request.Context(), restaurantID, c.Param("number"), req.Status, services.DashboardActor(user.Email))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(order))
}

// Delete removes an order permanently.
// DELETE /api/v1/restaurants/:restaurantId/orders/:number
func (h *OrderHandler) Delete(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceOrders, access.ActionDelete)
	if !ok {
		return
	}

	if err := h.orders.Delete(c.Request.Context(), restaurantID, c.Param("number")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(nil))
}
