package equipment

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/response"
	"github.com/acro-planner/backend/pkg/storage"
)

// EquipmentBody is the body for create and update requests.
type EquipmentBody struct {
	ConventionID *string  `json:"convention_id"`
	LocationID   *string  `json:"location_id"`
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	Media        []string `json:"media"`
	Quantity     int      `json:"quantity"`
}

// UploadURLBody is the body for POST /equipment/:id/media/upload-url.
type UploadURLBody struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// Handler handles equipment endpoints.
type Handler struct {
	repo    *Repository
	storage *storage.S3
	logger  *zap.Logger
}

// NewHandler creates an equipment handler.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, storage: s3, logger: logger}
}

func (b *EquipmentBody) toModel() *models.Equipment {
	return &models.Equipment{
		ConventionID: b.ConventionID,
		LocationID:   b.LocationID,
		Name:         b.Name,
		Description:  b.Description,
		Media:        b.Media,
		Quantity:     b.Quantity,
	}
}

// Create handles POST /equipment (host or admin).
func (h *Handler) Create(c *gin.Context) {
	var body EquipmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	if body.Quantity < 0 {
		response.Unprocessable(c, "quantity must not be negative")
		return
	}

	item, err := h.repo.Create(c.Request.Context(), body.toModel())
	if err != nil {
		h.logger.Error("create equipment", zap.Error(err))
		response.Internal(c, "failed to create equipment")
		return
	}
	response.Created(c, item)
}

// Get handles GET /equipment/:id.
func (h *Handler) Get(c *gin.Context) {
	item, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "equipment not found")
			return
		}
		h.logger.Error("get equipment", zap.Error(err))
		response.Internal(c, "failed to fetch equipment")
		return
	}
	response.OK(c, item)
}

// List handles GET /equipment?convention_id=&location_id=.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.Query("convention_id"), c.Query("location_id"))
	if err != nil {
		h.logger.Error("list equipment", zap.Error(err))
		response.Internal(c, "failed to list equipment")
		return
	}
	response.OK(c, list)
}

// Update handles PUT /equipment/:id (host or admin).
func (h *Handler) Update(c *gin.Context) {
	var body EquipmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	if body.Quantity < 0 {
		response.Unprocessable(c, "quantity must not be negative")
		return
	}

	item, err := h.repo.Update(c.Request.Context(), c.Param("id"), body.toModel())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "equipment not found")
			return
		}
		h.logger.Error("update equipment", zap.Error(err))
		response.Internal(c, "failed to update equipment")
		return
	}
	response.OK(c, item)
}

// Delete handles DELETE /equipment/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	err := h.repo.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "equipment not found")
		case errors.Is(err, ErrInUse):
			response.Conflict(c, "equipment is still listed on locations or events")
		default:
			h.logger.Error("delete equipment", zap.Error(err))
			response.Internal(c, "failed to delete equipment")
		}
		return
	}
	response.NoContent(c)
}

// UploadURL handles POST /equipment/:id/media/upload-url (host or admin).
func (h *Handler) UploadURL(c *gin.Context) {
	if h.storage == nil {
		response.Internal(c, "media storage is not configured")
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

	id := c.Param("id")
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "equipment not found")
			return
		}
		h.logger.Error("get equipment", zap.Error(err))
		response.Internal(c, "failed to generate upload URL")
		return
	}

	key := storage.MediaKey("equipment", id, body.Filename)
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
