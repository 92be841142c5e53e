package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"tableline/internal/auth"
	"tableline/internal/dto"
	"tableline/internal/models"
	"tableline/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Auth Middleware
// Dashboard routes carry a bearer token minted by the identity provider.
// The token subject is mapped to a local user, created on first sight.
// ===========================================================================

// Context keys for auth data
const (
	ContextKeyUser   = "user"
	ContextKeyClaims = "claims"
)

// UserResolver maps a verified identity to a local user.
type UserResolver interface {
	Resolve(ctx context.Context, id services.Identity) (*models.User, error)
}

// AuthMiddleware verifies the bearer token and loads the user.
func AuthMiddleware(verifier *auth.Verifier, users UserResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Error("UNAUTHENTICATED", "Authentication required"))
			return
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Error("TOKEN_EXPIRED", "Token has expired"))
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Error("INVALID_TOKEN", "Invalid token"))
			}
			return
		}

		user, err := users.Resolve(c.Request.Context(), services.Identity{
			Subject: claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
		})
		if err != nil {
			logger.Error("resolve user",
				zap.String("request_id", GetRequestID(c)),
				zap.String("subject", claims.Subject),
				zap.Error(err),
			)
			status, resp := dto.ErrorFromErr(err)
			c.AbortWithStatusJSON(status, resp)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyUser, user)

		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUser returns the signed-in user.
func GetUser(c *gin.Context) (*models.User, bool) {
	u, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := u.(*models.User)
	return user, ok
}

// GetClaims returns the verified token claims.
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	claims, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}
	cl, ok := claims.(*auth.Claims)
	return cl, ok
}
