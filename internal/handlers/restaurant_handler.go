package handlers

import (
	"net/http"

	"tableline/internal/access"
	"tableline/internal/dto"
	"tableline/internal/middleware"
	"tableline/internal/models"
	"tableline/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Restaurant Handler
// Signed-in user, restaurant details and operating hours
// ===========================================================================

// RestaurantHandler serves /me and the restaurant-level endpoints.
type RestaurantHandler struct {
	guard
	restaurants services.RestaurantService
}

// NewRestaurantHandler creates the handler.
func NewRestaurantHandler(restaurants services.RestaurantService, accounts services.AccountService, logger *zap.Logger) *RestaurantHandler {
	return &RestaurantHandler{
		guard:       guard{accounts: accounts, logger: logger.Named("restaurants")},
		restaurants: restaurants,
	}
}

// RegisterRoutes mounts the restaurant routes on rg (/restaurants/:restaurantId).
func (h *RestaurantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
	rg.GET("/menu", h.Menu)
	rg.PUT("/hours", h.UpdateHours)
}

// Me returns the signed-in user and the restaurants they can open.
// GET /api/v1/me
func (h *RestaurantHandler) Me(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHENTICATED", "Authentication required"))
		return
	}

	memberships, err := h.accounts.Memberships(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(dto.MeResponse{User: user, Restaurants: memberships}))
}

// Get returns the restaurant.
// GET /api/v1/restaurants/:restaurantId
func (h *RestaurantHandler) Get(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceReservations, access.ActionRead)
	if !ok {
		return
	}

	restaurant, err := h.restaurants.Get(c.Request.Context(), restaurantID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(restaurant))
}

// Menu returns the available menu items.
// GET /api/v1/restaurants/:restaurantId/menu
func (h *RestaurantHandler) Menu(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceOrders, access.ActionRead)
	if !ok {
		return
	}

	items, err := h.restaurants.Menu(c.Request.Context(), restaurantID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(items))
}

// UpdateHours replaces the weekly schedule and refreshes agent prompts.
// PUT /api/v1/restaurants/:restaurantId/hours
func (h *RestaurantHandler) UpdateHours(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceHours, access.ActionWrite)
	if !ok {
		return
	}

	var req dto.UpdateHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.restaurants.UpdateHours(c.Request.Context(), restaurantID, models.OperatingHours(req.Hours))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := dto.HoursResponse{Restaurant: result.Restaurant, AgentsUpdated: result.AgentsUpdated}
	if result.SyncError != nil {
		h.logger.Warn("agent prompt sync incomplete",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("restaurant_id", restaurantID.String()),
			zap.Error(result.SyncError),
		)
		resp.Warning = "Hours saved, but some agents could not be updated. Try again later."
	}
	c.JSON(http.StatusOK, dto.Success(resp))
}
