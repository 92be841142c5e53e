package handlers

import (
	"net/http"

	"tableline/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Router
// ===========================================================================

// Router groups every handler mounted by the server.
type Router struct {
	Voice        *VoiceHandler
	PostCall     *PostCallHandler
	Orders       *OrderHandler
	Reservations *ReservationHandler
	Agents       *AgentHandler
	Integrations *IntegrationHandler
	Restaurants  *RestaurantHandler

	// Auth guards the dashboard routes
	Auth gin.HandlerFunc

	// Ready reports dependency health for /health; nil means always healthy
	Ready func() error

	AllowedOrigins []string
	Logger         *zap.Logger
}

// Engine builds the gin engine.
func (r *Router) Engine() *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(r.Logger))
	engine.Use(middleware.Logging(r.Logger))
	engine.Use(middleware.CORS(r.AllowedOrigins))

	engine.GET("/health", func(c *gin.Context) {
		if r.Ready != nil {
			if err := r.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := engine.Group("/api/v1")
	{
		// Voice agent webhooks (public, tenant from the query string)
		voice := api.Group("/webhooks/voice")
		r.Voice.RegisterRoutes(voice)
		r.PostCall.RegisterRoutes(voice)

		// Dashboard (bearer token)
		protected := api.Group("")
		protected.Use(r.Auth)
		{
			protected.GET("/me", r.Restaurants.Me)

			restaurant := protected.Group("/restaurants/:restaurantId")
			r.Restaurants.RegisterRoutes(restaurant)
			r.Orders.RegisterRoutes(restaurant)
			r.Reservations.RegisterRoutes(restaurant)
			r.Agents.RegisterRoutes(restaurant)
			r.Integrations.RegisterRoutes(restaurant)
		}
	}

	return engine
}
