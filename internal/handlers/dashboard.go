package handlers

import (
	"errors"
	"net/http"

	"tableline/internal/access"
	"tableline/internal/dto"
	"tableline/internal/middleware"
	"tableline/internal/models"
	"tableline/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Dashboard plumbing
// Every dashboard route is scoped to /restaurants/:restaurantId and checked
// against the caller's role before the handler body runs.
// ===========================================================================

// guard authorizes dashboard requests and renders errors.
type guard struct {
	accounts services.AccountService
	logger   *zap.Logger
}

// authorize resolves the restaurant in the path and checks that the
// signed-in user may perform action on resource. On failure the response
// is already written.
func (g *guard) authorize(c *gin.Context, resource access.Resource, action access.Action) (uuid.UUID, *models.User, bool) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHENTICATED", "Authentication required"))
		return uuid.Nil, nil, false
	}

	restaurantID, err := uuid.Parse(c.Param("restaurantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid restaurant id"))
		return uuid.Nil, nil, false
	}

	if _, err := g.accounts.Authorize(c.Request.Context(), user, restaurantID, resource, action); err != nil {
		g.writeError(c, err)
		return uuid.Nil, nil, false
	}
	return restaurantID, user, true
}

// writeError renders a service error, logging the unexpected ones.
func (g *guard) writeError(c *gin.Context, err error) {
	status, resp := dto.ErrorFromErr(err)
	if status >= http.StatusInternalServerError {
		g.logger.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, resp)
}

// bindError renders a ShouldBind failure.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		c.JSON(http.StatusBadRequest, dto.ValidationFailed("Some fields are invalid", fields))
		return
	}
	c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid request body"))
}
