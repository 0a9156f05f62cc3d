package locations

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/equipment"
	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/response"
)

// LocationBody is the body for create and update requests.
type LocationBody struct {
	ConventionID *string         `json:"convention_id"`
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Address      string          `json:"address"`
	Capacity     *int            `json:"capacity"`
	Details      json.RawMessage `json:"details"`
	EquipmentIDs []string        `json:"equipment_ids"`
}

// Handler handles location endpoints.
type Handler struct {
	repo      *Repository
	equipment *equipment.Repository
	logger    *zap.Logger
}

// NewHandler creates a locations handler.
func NewHandler(repo *Repository, equip *equipment.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, equipment: equip, logger: logger}
}

func (b *LocationBody) toModel() *models.Location {
	return &models.Location{
		ConventionID: b.ConventionID,
		Name:         b.Name,
		Description:  b.Description,
		Address:      b.Address,
		Capacity:     b.Capacity,
		Details:      b.Details,
		EquipmentIDs: b.EquipmentIDs,
	}
}

// Create handles POST /locations (host or admin).
func (h *Handler) Create(c *gin.Context) {
	var body LocationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	if body.Capacity != nil && *body.Capacity < 0 {
		response.Unprocessable(c, "capacity must not be negative")
		return
	}

	loc, err := h.repo.Create(c.Request.Context(), body.toModel())
	if err != nil {
		h.logger.Error("create location", zap.Error(err))
		response.Internal(c, "failed to create location")
		return
	}
	response.Created(c, loc)
}

// Get handles GET /locations/:id?expand=equipment.
func (h *Handler) Get(c *gin.Context) {
	loc, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "location not found")
			return
		}
		h.logger.Error("get location", zap.Error(err))
		response.Internal(c, "failed to fetch location")
		return
	}

	if expands(c.Query("expand"), "equipment") {
		items, err := h.equipment.GetByIDs(c.Request.Context(), loc.EquipmentIDs)
		if err != nil {
			h.logger.Error("expand location equipment", zap.Error(err))
			response.Internal(c, "failed to fetch location")
			return
		}
		loc.Equipment = items
	}
	response.OK(c, loc)
}

// List handles GET /locations?convention_id=&expand=equipment.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.Query("convention_id"))
	if err != nil {
		h.logger.Error("list locations", zap.Error(err))
		response.Internal(c, "failed to list locations")
		return
	}

	if expands(c.Query("expand"), "equipment") {
		for i := range list {
			items, err := h.equipment.GetByIDs(c.Request.Context(), list[i].EquipmentIDs)
			if err != nil {
				h.logger.Error("expand location equipment", zap.Error(err))
				response.Internal(c, "failed to list locations")
				return
			}
			list[i].Equipment = items
		}
	}
	response.OK(c, list)
}

// Update handles PUT /locations/:id (host or admin).
func (h *Handler) Update(c *gin.Context) {
	var body LocationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	if body.Capacity != nil && *body.Capacity < 0 {
		response.Unprocessable(c, "capacity must not be negative")
		return
	}

	loc, err := h.repo.Update(c.Request.Context(), c.Param("id"), body.toModel())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "location not found")
			return
		}
		h.logger.Error("update location", zap.Error(err))
		response.Internal(c, "failed to update location")
		return
	}
	response.OK(c, loc)
}

// Delete handles DELETE /locations/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	err := h.repo.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "location not found")
		case errors.Is(err, ErrInUse):
			response.Conflict(c, "location still has scheduled event slots")
		default:
			h.logger.Error("delete location", zap.Error(err))
			response.Internal(c, "failed to delete location")
		}
		return
	}
	response.NoContent(c)
}

func expands(param, field string) bool {
	for _, p := range strings.Split(param, ",") {
		if strings.TrimSpace(p) == field {
			return true
		}
	}
	return false
}
