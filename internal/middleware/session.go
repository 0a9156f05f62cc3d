package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/auth"
	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// RoleSource resolves a user's current role. The second return reports
// whether the user exists.
type RoleSource interface {
	RoleByID(ctx context.Context, userID string) (models.Role, bool, error)
}

// Session returns a middleware that validates the session (cookie or Bearer
// token) and sets user claims in context. The role is read from roles rather
// than the token claim, so role changes apply immediately instead of when the
// token expires.
func Session(sessions *auth.SessionService, roles RoleSource, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessions.TokenFromRequest(c)
		if token == "" {
			response.Unauthorized(c, "missing session")
			c.Abort()
			return
		}
		claims, err := sessions.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired session")
			c.Abort()
			return
		}

		role, found, err := roles.RoleByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.Error("resolve session role", zap.Error(err))
			response.Internal(c, "failed to resolve session")
			c.Abort()
			return
		}
		if !found {
			response.Unauthorized(c, "unknown session user")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, string(role))
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}
