package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

const userIDKey = "user_id"

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IdentityConfig controls how requests without a token are treated
type IdentityConfig struct {
	// Required rejects requests that carry no bearer token
	Required bool
	// DefaultUserID is used for anonymous requests when Required is false
	DefaultUserID uuid.UUID
}

// Identity resolves the caller's user id and stores it in the gin context.
// A bearer token always wins; an invalid one is rejected even when tokens
// are optional.
func Identity(validator TokenValidator, cfg IdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if cfg.Required || cfg.DefaultUserID == uuid.Nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "missing authorization header"})
				return
			}
			c.Set(userIDKey, cfg.DefaultUserID)
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "invalid authorization header format"})
			return
		}

		if validator == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "token validation is not configured"})
			return
		}
		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			slog.Debug("rejected bearer token", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "Invalid token"})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the id stored by Identity
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
