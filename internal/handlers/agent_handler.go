package handlers

import (
	"net/http"

	"tableline/internal/access"
	"tableline/internal/dto"
	"tableline/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Agent Handler
// Agent changes are pushed to the voice-agent provider before they are saved.
// ===========================================================================

// AgentHandler serves the dashboard agent endpoints.
type AgentHandler struct {
	guard
	agents services.AgentService
}

// NewAgentHandler creates the handler.
func NewAgentHandler(agents services.AgentService, accounts services.AccountService, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		guard:  guard{accounts: accounts, logger: logger.Named("agents")},
		agents: agents,
	}
}

// RegisterRoutes mounts the routes on rg (/restaurants/:restaurantId).
func (h *AgentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/agents", h.List)
	rg.POST("/agents", h.Create)
	rg.PATCH("/agents/:agentId", h.Update)
}

// List returns the restaurant's agents.
// GET /api/v1/restaurants/:restaurantId/agents
func (h *AgentHandler) List(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceAgents, access.ActionRead)
	if !ok {
		return
	}

	agents, err := h.agents.List(c.Request.Context(), restaurantID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(agents))
}

// Create registers a new agent with the provider.
// POST /api/v1/restaurants/:restaurantId/agents
func (h *AgentHandler) Create(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceAgents, access.ActionWrite)
	if !ok {
		return
	}

	var req dto.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	agent, err := h.agents.Create(c.Request.Context(), restaurantID, agentInput(req))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Success(agent))
}

// Update changes voice settings or the prompt.
// PATCH /api/v1/restaurants/:restaurantId/agents/:agentId
func (h *AgentHandler) Update(c *gin.Context) {
	restaurantID, _, ok := h.authorize(c, access.ResourceAgents, access.ActionWrite)
	if !ok {
		return
	}

	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid agent id"))
		return
	}

	var req dto.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	agent, err := h.agents.Update(c.Request.Context(), restaurantID, agentID, agentInput(req))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(agent))
}

func agentInput(req dto.AgentRequest) services.AgentInput {
	return services.AgentInput{
		Name:                    req.Name,
		VoiceID:                 req.VoiceID,
		VoiceSpeed:              req.VoiceSpeed,
		VoiceTemperature:        req.VoiceTemperature,
		Volume:                  req.Volume,
		Language:                req.Language,
		Responsiveness:          req.Responsiveness,
		InterruptionSensitivity: req.InterruptionSensitivity,
		EndCallAfterSilenceMs:   req.EndCallAfterSilenceMs,
		MaxCallDurationMs:       req.MaxCallDurationMs,
		BeginMessage:            req.BeginMessage,
		PhoneNumber:             req.PhoneNumber,
		IsActive:                req.IsActive,
		Prompt:                  req.Prompt,
	}
}
