package hosts

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/middleware"
	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/queue"
	"github.com/acro-planner/backend/pkg/response"
	"github.com/acro-planner/backend/pkg/storage"
)

// RequestHostBody is the body for POST /hosts/request.
type RequestHostBody struct {
	Message string `json:"message"`
}

// DenyBody is the body for POST /hosts/requests/:id/deny.
type DenyBody struct {
	Reason string `json:"reason"`
}

// ProfileBody is the body for PUT /hosts/:userID/profile.
type ProfileBody struct {
	Photos []string          `json:"photos"`
	Links  []models.HostLink `json:"links"`
}

// UploadURLBody is the body for POST /hosts/:userID/media/upload-url.
type UploadURLBody struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// AvailabilityBody is the body for PUT /hosts/:userID/availability.
type AvailabilityBody struct {
	EventSlotIDs []string `json:"event_slot_ids"`
}

// Handler handles host request and profile endpoints.
type Handler struct {
	repo    *Repository
	jobs    *queue.Queue
	storage *storage.S3
	logger  *zap.Logger
}

// NewHandler creates a hosts handler. storage may be nil when S3 is not
// configured; profile photo upload URLs are then unavailable.
func NewHandler(repo *Repository, jobs *queue.Queue, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jobs: jobs, storage: s3, logger: logger}
}

// Request handles POST /hosts/request (any authenticated user).
func (h *Handler) Request(c *gin.Context) {
	var body RequestHostBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Unprocessable(c, "invalid request: "+err.Error())
			return
		}
	}

	hr, err := h.repo.CreateRequest(c.Request.Context(), c.GetString(middleware.ContextUserID), body.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyHost):
			response.Conflict(c, "user already has host privileges")
		case errors.Is(err, ErrDuplicateRequest):
			response.Conflict(c, "a pending host request already exists")
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "user not found")
		default:
			h.logger.Error("create host request", zap.Error(err))
			response.Internal(c, "failed to create host request")
		}
		return
	}
	response.Created(c, hr)
}

// ListRequests handles GET /hosts/requests?status= (admin only).
func (h *Handler) ListRequests(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != string(models.HostRequestPending) &&
		status != string(models.HostRequestApproved) && status != string(models.HostRequestDenied) {
		response.Unprocessable(c, "invalid status, must be one of: pending, approved, denied")
		return
	}
	list, err := h.repo.ListRequests(c.Request.Context(), status)
	if err != nil {
		h.logger.Error("list host requests", zap.Error(err))
		response.Internal(c, "failed to list host requests")
		return
	}
	response.OK(c, list)
}

// Approve handles POST /hosts/requests/:id/approve (admin only).
func (h *Handler) Approve(c *gin.Context) {
	hr, user, err := h.repo.Approve(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.respondResolveError(c, err, "approve host request")
		return
	}

	h.notify(c, queue.EmailPayload{
		Kind:           queue.EmailHostApproved,
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		Subject:        "Your host request was approved",
		Body:           fmt.Sprintf("Hi %s,\n\nYour request to become a host on Acro Planner was approved. You can now create and teach workshops.", user.Name),
	})
	response.OK(c, gin.H{"request": hr, "user": user})
}

// Deny handles POST /hosts/requests/:id/deny (admin only).
func (h *Handler) Deny(c *gin.Context) {
	var body DenyBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Unprocessable(c, "invalid request: "+err.Error())
			return
		}
	}

	hr, user, err := h.repo.Deny(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID), body.Reason)
	if err != nil {
		h.respondResolveError(c, err, "deny host request")
		return
	}

	msg := fmt.Sprintf("Hi %s,\n\nYour request to become a host on Acro Planner was not approved at this time.", user.Name)
	if body.Reason != "" {
		msg += "\n\nReason: " + body.Reason
	}
	h.notify(c, queue.EmailPayload{
		Kind:           queue.EmailHostDenied,
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		Subject:        "Your host request was denied",
		Body:           msg,
	})
	response.OK(c, gin.H{"request": hr, "user": user})
}

func (h *Handler) respondResolveError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "host request not found")
	case errors.Is(err, ErrAlreadyResolved):
		response.Conflict(c, "host request already resolved")
	default:
		h.logger.Error(op, zap.Error(err))
		response.Internal(c, "failed to resolve host request")
	}
}

func (h *Handler) notify(c *gin.Context, payload queue.EmailPayload) {
	if err := h.jobs.EnqueueEmail(c.Request.Context(), payload); err != nil {
		h.logger.Error("enqueue email", zap.Error(err), zap.String("kind", string(payload.Kind)))
	}
}

// GetProfile handles GET /hosts/:userID/profile (public).
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.repo.GetProfile(c.Request.Context(), c.Param("userID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "host profile not found")
			return
		}
		h.logger.Error("get host profile", zap.Error(err))
		response.Internal(c, "failed to load host profile")
		return
	}
	response.OK(c, profile)
}

// UpdateProfile handles PUT /hosts/:userID/profile (owner or admin).
func (h *Handler) UpdateProfile(c *gin.Context) {
	targetID := c.Param("userID")
	callerID := c.GetString(middleware.ContextUserID)
	callerRole := c.GetString(middleware.ContextUserRole)
	if targetID != callerID && callerRole != string(models.RoleAdmin) {
		response.Forbidden(c, "cannot edit another host's profile")
		return
	}

	var body ProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	profile, err := h.repo.UpdateProfile(c.Request.Context(), targetID, body.Photos, body.Links)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "host profile not found")
			return
		}
		h.logger.Error("update host profile", zap.Error(err))
		response.Internal(c, "failed to update host profile")
		return
	}
	response.OK(c, profile)
}

// GetAvailability handles GET /hosts/:userID/availability (public).
func (h *Handler) GetAvailability(c *gin.Context) {
	profile, err := h.repo.GetProfile(c.Request.Context(), c.Param("userID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "host profile not found")
			return
		}
		h.logger.Error("get host availability", zap.Error(err))
		response.Internal(c, "failed to load host availability")
		return
	}
	response.OK(c, gin.H{
		"host_id":        profile.ID,
		"user_id":        profile.UserID,
		"event_slot_ids": profile.AvailableSlotIDs,
	})
}

// SetAvailability handles PUT /hosts/:userID/availability (owner or admin).
// Replaces the host's declared slot availability.
func (h *Handler) SetAvailability(c *gin.Context) {
	targetID := c.Param("userID")
	callerID := c.GetString(middleware.ContextUserID)
	callerRole := c.GetString(middleware.ContextUserRole)
	if targetID != callerID && callerRole != string(models.RoleAdmin) {
		response.Forbidden(c, "cannot set another host's availability")
		return
	}

	var body AvailabilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	profile, err := h.repo.SetAvailability(c.Request.Context(), targetID, body.EventSlotIDs)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "host profile not found")
		case errors.Is(err, ErrSlotNotFound):
			response.NotFound(c, "event slot not found")
		default:
			h.logger.Error("set host availability", zap.Error(err))
			response.Internal(c, "failed to set host availability")
		}
		return
	}
	response.OK(c, profile)
}

// UploadURL handles POST /hosts/:userID/media/upload-url (owner or admin).
// Returns a presigned PUT URL; the client stores the returned key on the
// profile's photo list after uploading.
func (h *Handler) UploadURL(c *gin.Context) {
	if h.storage == nil {
		response.Internal(c, "media storage is not configured")
		return
	}

	targetID := c.Param("userID")
	callerID := c.GetString(middleware.ContextUserID)
	callerRole := c.GetString(middleware.ContextUserRole)
	if targetID != callerID && callerRole != string(models.RoleAdmin) {
		response.Forbidden(c, "cannot upload media for another host's profile")
		return
	}

	var body UploadURLBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	contentType := body.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(body.Filename)
	}
	if !storage.ValidateMediaFileType(contentType, body.Filename) {
		response.Unprocessable(c, "unsupported media type")
		return
	}

	if _, err := h.repo.GetProfile(c.Request.Context(), targetID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "host profile not found")
			return
		}
		h.logger.Error("get host profile", zap.Error(err))
		response.Internal(c, "failed to generate upload URL")
		return
	}

	key := storage.MediaKey("hosts", targetID, body.Filename)
	url, err := h.storage.GeneratePresignedUploadURL(c.Request.Context(), key, contentType, h.storage.PresignExpire())
	if err != nil {
		h.logger.Error("presign upload", zap.Error(err))
		response.Internal(c, "failed to generate upload URL")
		return
	}
	response.OK(c, gin.H{
		"upload_url":   url,
		"key":          key,
		"content_type": contentType,
		"public_url":   h.storage.PublicObjectURL(key),
	})
}
