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
// Integration Handler
// Third-party credentials. Keys are write-only; reads return them masked.
// ===========================================================================

// IntegrationHandler serves the dashboard integration endpoints.
type IntegrationHandler struct {
	guard
	integrations services.IntegrationService
}

// NewIntegrationHandler creates the handler.
func NewIntegrationHandler(integrations services.IntegrationService, accounts services.AccountService, logger *zap.Logger) *IntegrationHandler {
	return &IntegrationHandler{
		guard:        guard{accounts: accounts, logger: logger.Named("integrations")},
		integrations: integrations,
	}
}

// RegisterRoutes mounts the routes on rg (/restaurants/:restaurantId).
func (h *IntegrationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/integrations", h.List)
	rg.PUT("/integrations/:provider", h.Save)
	rg.DELETE("/integrations/:provider", h.Delete)
}

// List returns the restaurant's integrations with masked keys.
// GET /api/v1/restaurants/:restaurantId/integrations
func (h *IntegrationHandler) List(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceIntegrations, access.ActionRead)
	if !ok {
		return
	}

	integrations, err := h.integrations.List(c.Request.Context(), restaurantID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]dto.IntegrationResponse, 0, len(integrations))
	for i := range integrations {
		out = append(out, dto.NewIntegrationResponse(&integrations[i]))
	}
	c.JSON(http.StatusOK, dto.Success(out))
}

// Save creates or replaces the credential of a provider.
// PUT /api/v1/restaurants/:restaurantId/integrations/:provider
func (h *IntegrationHandler) Save(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceIntegrations, access.ActionWrite)
	if !ok {
		return
	}

	var req dto.SaveIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	integration, err := h.integrations.Save(c.Request.Context(), restaurantID, c.Param("provider"), services.IntegrationInput{
		APIKey:     req.APIKey,
		TenantSlug: req.TenantSlug,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(dto.NewIntegrationResponse(integration)))
}

// Delete removes a provider credential.
// DELETE /api/v1/restaurants/:restaurantId/integrations/:provider
func (h *IntegrationHandler) Delete(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceIntegrations, access.ActionDelete)
	if !ok {
		return
	}

	if err := h.integrations.Delete(c.Request.Context(), restaurantID, c.Param("provider")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(nil))
}
