package users

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/middleware"
	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/response"
)

// RoleUpdateRequest is the body for PATCH /users/:id/role.
type RoleUpdateRequest struct {
	Role string `json:"role" binding:"required"`
}

// Handler handles user administration endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// ListByRole handles GET /users/role/:role (admin only).
func (h *Handler) ListByRole(c *gin.Context) {
	role := c.Param("role")
	if !models.ValidRole(role) {
		response.Unprocessable(c, "invalid role, must be one of: attendee, host, admin")
		return
	}
	list, err := h.repo.ListByRole(c.Request.Context(), models.Role(role))
	if err != nil {
		h.logger.Error("list users by role", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, gin.H{"users": list, "total": len(list), "role": role})
}

// UpdateRole handles PATCH /users/:id/role (admin only).
func (h *Handler) UpdateRole(c *gin.Context) {
	var req RoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	if !models.ValidRole(req.Role) {
		response.Unprocessable(c, "invalid role, must be one of: attendee, host, admin")
		return
	}

	u, err := h.repo.SetRole(c.Request.Context(), c.Param("id"), models.Role(req.Role))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("set role", zap.Error(err))
		response.Internal(c, "failed to update role")
		return
	}
	response.OK(c, u)
}

// PromoteAdmin handles POST /users/:id/promote-admin (admin only).
func (h *Handler) PromoteAdmin(c *gin.Context) {
	u, err := h.repo.PromoteAdmin(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "user not found")
		case errors.Is(err, ErrAlreadyAdmin):
			response.Conflict(c, "user already has admin role")
		default:
			h.logger.Error("promote admin", zap.Error(err))
			response.Internal(c, "failed to promote user")
		}
		return
	}
	response.OK(c, gin.H{"message": "user promoted to admin", "user": u})
}

// DemoteAdmin handles POST /users/:id/demote-admin (admin only). Self-demotion
// is forbidden regardless of how many admins remain.
func (h *Handler) DemoteAdmin(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == c.GetString(middleware.ContextUserID) {
		response.Forbidden(c, "admins cannot demote themselves")
		return
	}

	u, err := h.repo.DemoteAdmin(c.Request.Context(), targetID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "user not found")
		case errors.Is(err, ErrNotAdmin):
			response.Conflict(c, "user does not have admin role")
		case errors.Is(err, ErrLastAdmin):
			response.Conflict(c, "cannot demote the last remaining admin")
		default:
			h.logger.Error("demote admin", zap.Error(err))
			response.Internal(c, "failed to demote user")
		}
		return
	}
	response.OK(c, gin.H{"message": "admin role removed", "user": u})
}
