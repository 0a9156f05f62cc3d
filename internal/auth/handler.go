package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/queue"
	"github.com/acro-planner/backend/pkg/response"
	"github.com/acro-planner/backend/pkg/utils"
)

const resetTokenTTL = time.Hour

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest is the body for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest is the body for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// TokenResponse is the auth response with the session token.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo        *Repository
	sessions    *SessionService
	jobs        *queue.Queue
	frontendURL string
	logger      *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, sessions *SessionService, jobs *queue.Queue, frontendURL string, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, sessions: sessions, jobs: jobs, frontendURL: frontendURL, logger: logger}
}

// Register handles POST /auth/register. New accounts always start as attendees.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			response.Unprocessable(c, "password exceeds 72 bytes")
			return
		}
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, req.Name, hash)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			response.Conflict(c, "email already registered")
			return
		}
		h.logger.Error("create user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.sessions.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to create session")
		return
	}

	h.sessions.SetCookie(c, token)
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if user.OAuthOnly || user.PasswordHash == "" || !utils.CheckPassword(req.Password, user.PasswordHash) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.sessions.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to create session")
		return
	}

	h.sessions.SetCookie(c, token)
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	h.sessions.ClearCookie(c)
	response.OK(c, gin.H{"logged_out": true})
}

// Me handles GET /users/me. Reads the user from the database so role changes
// made after the session was issued are reflected.
func (h *Handler) Me(c *gin.Context) {
	userID := c.GetString("user_id")
	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Unauthorized(c, "session user no longer exists")
		return
	}
	response.OK(c, user.ToPublic())
}

// ForgotPassword handles POST /auth/forgot-password. Always responds 200 so the
// endpoint cannot be used to probe which emails have accounts.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err == nil && !user.OAuthOnly {
		token := newResetToken()
		if _, err := h.repo.CreateResetToken(c.Request.Context(), user.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
			h.logger.Error("create reset token", zap.Error(err))
		} else {
			body := fmt.Sprintf("Hi %s,\n\nReset your Acro Planner password here: %s/reset-password?token=%s\n\nThe link expires in 1 hour.",
				user.Name, h.frontendURL, token)
			if err := h.jobs.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
				Kind:           queue.EmailPasswordReset,
				RecipientEmail: user.Email,
				RecipientName:  user.Name,
				Subject:        "Reset your Acro Planner password",
				Body:           body,
			}); err != nil {
				h.logger.Error("enqueue reset email", zap.Error(err))
			}
		}
	}

	response.OK(c, gin.H{"message": "if that email has an account, a reset link was sent"})
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	t, err := h.repo.GetResetToken(c.Request.Context(), req.Token)
	if err != nil || t.Used || time.Now().After(t.ExpiresAt) {
		response.Unprocessable(c, "invalid or expired reset token")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			response.Unprocessable(c, "password exceeds 72 bytes")
			return
		}
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.MarkResetTokenUsed(c.Request.Context(), t.ID); err != nil {
		response.Unprocessable(c, "invalid or expired reset token")
		return
	}
	if err := h.repo.UpdatePassword(c.Request.Context(), t.UserID, hash); err != nil {
		h.logger.Error("update password", zap.Error(err))
		response.Internal(c, "failed to update password")
		return
	}

	response.OK(c, gin.H{"message": "password updated"})
}

func newResetToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
