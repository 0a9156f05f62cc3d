package selections

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/middleware"
	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/response"
)

// BatchBody is the body for POST /selections/batch.
type BatchBody struct {
	Selections []Input `json:"selections" binding:"required,min=1"`
}

// Handler handles selection and attendee-view endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a selections handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

func validateInput(in Input) string {
	if in.CommitmentLevel != "" && !models.ValidCommitmentLevel(in.CommitmentLevel) {
		return "commitment_level must be one of: interested, maybe, committed"
	}
	return ""
}

func (h *Handler) respondWriteError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "selection not found")
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, ErrSlotNotFound):
		response.NotFound(c, "event slot not found")
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(c, "selection belongs to another attendee")
	case errors.Is(err, ErrDuplicate):
		response.Conflict(c, "event already selected")
	default:
		h.logger.Error(action, zap.Error(err))
		response.Internal(c, "failed to "+action)
	}
}

// Create handles POST /selections (session).
func (h *Handler) Create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	if msg := validateInput(in); msg != "" {
		response.Unprocessable(c, msg)
		return
	}

	s, err := h.repo.Create(c.Request.Context(), c.GetString(middleware.ContextUserID), in)
	if err != nil {
		h.respondWriteError(c, err, "create selection")
		return
	}
	response.Created(c, s)
}

// CreateBatch handles POST /selections/batch (session). All selections are
// recorded atomically.
func (h *Handler) CreateBatch(c *gin.Context) {
	var body BatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	for _, in := range body.Selections {
		if msg := validateInput(in); msg != "" {
			response.Unprocessable(c, msg)
			return
		}
	}

	list, err := h.repo.CreateBatch(c.Request.Context(), c.GetString(middleware.ContextUserID), body.Selections)
	if err != nil {
		h.respondWriteError(c, err, "create selections")
		return
	}
	response.Created(c, list)
}

// Update handles PUT /selections/:id (owner only).
func (h *Handler) Update(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	if msg := validateInput(in); msg != "" {
		response.Unprocessable(c, msg)
		return
	}

	s, err := h.repo.Update(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID), in)
	if err != nil {
		h.respondWriteError(c, err, "update selection")
		return
	}
	response.OK(c, s)
}

// Delete handles DELETE /selections/:id (owner only).
func (h *Handler) Delete(c *gin.Context) {
	err := h.repo.Delete(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.respondWriteError(c, err, "delete selection")
		return
	}
	response.NoContent(c)
}

// Commit handles POST /selections/commit/:eventID (session): upserts the
// caller's selection for the event to committed.
func (h *Handler) Commit(c *gin.Context) {
	s, err := h.repo.Commit(c.Request.Context(), c.GetString(middleware.ContextUserID), c.Param("eventID"))
	if err != nil {
		h.respondWriteError(c, err, "commit selection")
		return
	}
	response.OK(c, s)
}

// Schedule handles GET /attendees/schedule (session): the caller's selections
// with events and slots resolved.
func (h *Handler) Schedule(c *gin.Context) {
	list, err := h.repo.Schedule(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.logger.Error("attendee schedule", zap.Error(err))
		response.Internal(c, "failed to fetch schedule")
		return
	}
	response.OK(c, list)
}

// Capabilities handles GET /attendees/:id/capabilities: capabilities the
// attendee has earned through committed selections.
func (h *Handler) Capabilities(c *gin.Context) {
	list, err := h.repo.CapabilitiesForAttendee(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "attendee not found")
			return
		}
		h.logger.Error("attendee capabilities", zap.Error(err))
		response.Internal(c, "failed to fetch capabilities")
		return
	}
	response.OK(c, list)
}
