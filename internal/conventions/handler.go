package conventions

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/middleware"
	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/queue"
	"github.com/acro-planner/backend/pkg/response"
)

// ConventionBody is the body for create and update requests.
type ConventionBody struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Location    string     `json:"location"`
	IsActive    *bool      `json:"is_active"`
}

// Handler handles convention endpoints.
type Handler struct {
	repo   *Repository
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewHandler creates a conventions handler.
func NewHandler(repo *Repository, jobs *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jobs: jobs, logger: logger}
}

func (b *ConventionBody) toModel() (*models.Convention, error) {
	if b.StartDate != nil && b.EndDate != nil && b.EndDate.Before(*b.StartDate) {
		return nil, errors.New("end_date must not be before start_date")
	}
	cv := &models.Convention{
		Name:        b.Name,
		Description: b.Description,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
		Location:    b.Location,
		IsActive:    true,
	}
	if b.IsActive != nil {
		cv.IsActive = *b.IsActive
	}
	return cv, nil
}

// Create handles POST /conventions (admin only).
func (h *Handler) Create(c *gin.Context) {
	var body ConventionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	cv, err := body.toModel()
	if err != nil {
		response.Unprocessable(c, err.Error())
		return
	}

	created, err := h.repo.Create(c.Request.Context(), cv)
	if err != nil {
		h.logger.Error("create convention", zap.Error(err))
		response.Internal(c, "failed to create convention")
		return
	}
	response.Created(c, created)
}

// Get handles GET /conventions/:id.
func (h *Handler) Get(c *gin.Context) {
	cv, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "convention not found")
			return
		}
		h.logger.Error("get convention", zap.Error(err))
		response.Internal(c, "failed to fetch convention")
		return
	}
	response.OK(c, cv)
}

// List handles GET /conventions?active=true.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		h.logger.Error("list conventions", zap.Error(err))
		response.Internal(c, "failed to list conventions")
		return
	}
	response.OK(c, list)
}

// Update handles PUT /conventions/:id (admin only).
func (h *Handler) Update(c *gin.Context) {
	var body ConventionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	cv, err := body.toModel()
	if err != nil {
		response.Unprocessable(c, err.Error())
		return
	}

	updated, err := h.repo.Update(c.Request.Context(), c.Param("id"), cv)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "convention not found")
			return
		}
		h.logger.Error("update convention", zap.Error(err))
		response.Internal(c, "failed to update convention")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /conventions/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "convention not found")
			return
		}
		h.logger.Error("delete convention", zap.Error(err))
		response.Internal(c, "failed to delete convention")
		return
	}
	response.NoContent(c)
}

// Register handles POST /conventions/:id/register (session). Registering
// again for the same convention succeeds without side effects.
func (h *Handler) Register(c *gin.Context) {
	id := c.Param("id")
	attendee, err := h.repo.Register(c.Request.Context(), c.GetString(middleware.ContextUserID), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "convention not found")
			return
		}
		h.logger.Error("register for convention", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	if cv, err := h.repo.GetByID(c.Request.Context(), id); err == nil {
		email := c.GetString(middleware.ContextUserEmail)
		err := h.jobs.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
			Kind:           queue.EmailConventionRegistered,
			RecipientEmail: email,
			RecipientName:  email,
			Subject:        "You're registered for " + cv.Name,
			Body:           fmt.Sprintf("Your registration for %s is confirmed. See you there!", cv.Name),
		})
		if err != nil {
			h.logger.Warn("enqueue registration email", zap.Error(err))
		}
	}
	response.Created(c, attendee)
}

// Schedule handles GET /conventions/:id/schedule.
func (h *Handler) Schedule(c *gin.Context) {
	schedule, err := h.repo.Schedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "convention not found")
			return
		}
		h.logger.Error("convention schedule", zap.Error(err))
		response.Internal(c, "failed to fetch schedule")
		return
	}
	response.OK(c, schedule)
}
