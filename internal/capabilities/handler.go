package capabilities

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/pkg/response"
	"github.com/acro-planner/backend/pkg/storage"
)

// CapabilityBody is the body for create and update requests.
type CapabilityBody struct {
	Name                string   `json:"name" binding:"required"`
	Description         string   `json:"description"`
	ParentCapabilityIDs []string `json:"parent_capability_ids"`
	Media               []string `json:"media"`
}

// AddParentBody is the body for POST /capabilities/:id/parents.
type AddParentBody struct {
	ParentID string `json:"parent_id" binding:"required"`
}

// UploadURLBody is the body for POST /capabilities/:id/media/upload-url.
type UploadURLBody struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// Handler handles capability endpoints.
type Handler struct {
	repo    *Repository
	storage *storage.S3
	logger  *zap.Logger
}

// NewHandler creates a capabilities handler. storage may be nil when S3 is
// not configured; media upload URLs are then unavailable.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, storage: s3, logger: logger}
}

// Create handles POST /capabilities (host or admin).
func (h *Handler) Create(c *gin.Context) {
	var body CapabilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	if len(body.ParentCapabilityIDs) > 0 {
		if ok, missing := h.parentsExist(c, body.ParentCapabilityIDs); !ok {
			response.Unprocessable(c, "unknown parent capability: "+missing)
			return
		}
	}

	cp, err := h.repo.Create(c.Request.Context(), body.Name, body.Description, body.ParentCapabilityIDs, body.Media)
	if err != nil {
		h.logger.Error("create capability", zap.Error(err))
		response.Internal(c, "failed to create capability")
		return
	}
	response.Created(c, cp)
}

// Get handles GET /capabilities/:id.
func (h *Handler) Get(c *gin.Context) {
	cp, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "capability not found")
			return
		}
		h.logger.Error("get capability", zap.Error(err))
		response.Internal(c, "failed to fetch capability")
		return
	}
	response.OK(c, cp)
}

// List handles GET /capabilities.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list capabilities", zap.Error(err))
		response.Internal(c, "failed to list capabilities")
		return
	}
	response.OK(c, list)
}

// Update handles PUT /capabilities/:id (host or admin).
func (h *Handler) Update(c *gin.Context) {
	var body CapabilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	id := c.Param("id")
	if len(body.ParentCapabilityIDs) > 0 {
		if ok, missing := h.parentsExist(c, body.ParentCapabilityIDs); !ok {
			response.Unprocessable(c, "unknown parent capability: "+missing)
			return
		}
		parents, err := h.repo.ParentMap(c.Request.Context())
		if err != nil {
			h.logger.Error("load parent map", zap.Error(err))
			response.Internal(c, "failed to update capability")
			return
		}
		parents[id] = nil
		for _, p := range body.ParentCapabilityIDs {
			if p == id || WouldCreateCycle(id, p, parents) {
				response.Conflict(c, "parent link would create a cycle")
				return
			}
			parents[id] = append(parents[id], p)
		}
	}

	cp, err := h.repo.Update(c.Request.Context(), id, body.Name, body.Description, body.ParentCapabilityIDs, body.Media)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "capability not found")
			return
		}
		h.logger.Error("update capability", zap.Error(err))
		response.Internal(c, "failed to update capability")
		return
	}
	response.OK(c, cp)
}

// AddParent handles POST /capabilities/:id/parents (host or admin).
func (h *Handler) AddParent(c *gin.Context) {
	var body AddParentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	id := c.Param("id")
	if body.ParentID == id {
		response.Conflict(c, "capability cannot be its own parent")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), body.ParentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Unprocessable(c, "unknown parent capability: "+body.ParentID)
			return
		}
		h.logger.Error("get parent capability", zap.Error(err))
		response.Internal(c, "failed to add parent")
		return
	}

	parents, err := h.repo.ParentMap(c.Request.Context())
	if err != nil {
		h.logger.Error("load parent map", zap.Error(err))
		response.Internal(c, "failed to add parent")
		return
	}
	if WouldCreateCycle(id, body.ParentID, parents) {
		response.Conflict(c, "parent link would create a cycle")
		return
	}

	cp, err := h.repo.AddParent(c.Request.Context(), id, body.ParentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "capability not found")
			return
		}
		h.logger.Error("add parent", zap.Error(err))
		response.Internal(c, "failed to add parent")
		return
	}
	response.OK(c, cp)
}

// Delete handles DELETE /capabilities/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	err := h.repo.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "capability not found")
		case errors.Is(err, ErrInUse):
			response.Conflict(c, "capability is still referenced by events or other capabilities")
		default:
			h.logger.Error("delete capability", zap.Error(err))
			response.Internal(c, "failed to delete capability")
		}
		return
	}
	response.NoContent(c)
}

// UploadURL handles POST /capabilities/:id/media/upload-url (host or admin).
// Returns a presigned PUT URL; the client stores the returned key on the
// capability's media list after uploading.
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
			response.NotFound(c, "capability not found")
			return
		}
		h.logger.Error("get capability", zap.Error(err))
		response.Internal(c, "failed to generate upload URL")
		return
	}

	key := storage.MediaKey("capabilities", id, body.Filename)
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

// parentsExist verifies every ID in parentIDs refers to an existing
// capability, returning the first missing ID otherwise.
func (h *Handler) parentsExist(c *gin.Context, parentIDs []string) (bool, string) {
	found, err := h.repo.GetByIDs(c.Request.Context(), parentIDs)
	if err != nil {
		h.logger.Error("lookup parent capabilities", zap.Error(err))
		return true, ""
	}
	have := make(map[string]bool, len(found))
	for _, cp := range found {
		have[cp.ID] = true
	}
	for _, p := range parentIDs {
		if !have[p] {
			return false, p
		}
	}
	return true, ""
}
