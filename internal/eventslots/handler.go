package eventslots

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/locations"
	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/response"
)

// SlotBody is the body for create and update requests.
type SlotBody struct {
	ConventionID *string   `json:"convention_id"`
	LocationID   string    `json:"location_id" binding:"required"`
	EventID      *string   `json:"event_id"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
	DayNumber    int       `json:"day_number"`
}

// BulkBody is the body for POST /event-slots/bulk.
type BulkBody struct {
	ConventionID *string     `json:"convention_id"`
	LocationIDs  []string    `json:"location_ids" binding:"required,min=1"`
	Slots        []TimeRange `json:"slots" binding:"required,min=1"`
}

// Handler handles event slot endpoints.
type Handler struct {
	repo      *Repository
	locations *locations.Repository
	logger    *zap.Logger
}

// NewHandler creates an event slots handler.
func NewHandler(repo *Repository, locs *locations.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, locations: locs, logger: logger}
}

func (b *SlotBody) toModel() *models.EventSlot {
	return &models.EventSlot{
		ConventionID: b.ConventionID,
		LocationID:   b.LocationID,
		EventID:      b.EventID,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		DayNumber:    b.DayNumber,
	}
}

func (h *Handler) respondWriteError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "event slot not found")
	case errors.Is(err, ErrLocationNotFound):
		response.NotFound(c, "location not found")
	case errors.Is(err, ErrInvalidInterval):
		response.Unprocessable(c, "start_time must be before end_time")
	case errors.Is(err, ErrOverlap):
		response.Conflict(c, "slot overlaps an existing slot at this location")
	default:
		h.logger.Error(action, zap.Error(err))
		response.Internal(c, "failed to "+action)
	}
}

// Create handles POST /event-slots (admin only).
func (h *Handler) Create(c *gin.Context) {
	var body SlotBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	slot, err := h.repo.Create(c.Request.Context(), body.toModel())
	if err != nil {
		h.respondWriteError(c, err, "create event slot")
		return
	}
	response.Created(c, slot)
}

// Get handles GET /event-slots/:id?expand=location.
func (h *Handler) Get(c *gin.Context) {
	slot, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event slot not found")
			return
		}
		h.logger.Error("get event slot", zap.Error(err))
		response.Internal(c, "failed to fetch event slot")
		return
	}

	if expandsLocation(c.Query("expand")) {
		loc, err := h.locations.GetByID(c.Request.Context(), slot.LocationID)
		if err != nil && !errors.Is(err, locations.ErrNotFound) {
			h.logger.Error("expand slot location", zap.Error(err))
			response.Internal(c, "failed to fetch event slot")
			return
		}
		slot.Location = loc
	}
	response.OK(c, slot)
}

// List handles GET /event-slots?convention_id=&location_id=&event_id=&expand=location.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.Query("convention_id"), c.Query("location_id"), c.Query("event_id"))
	if err != nil {
		h.logger.Error("list event slots", zap.Error(err))
		response.Internal(c, "failed to list event slots")
		return
	}

	if expandsLocation(c.Query("expand")) {
		cache := map[string]*models.Location{}
		for i := range list {
			loc, ok := cache[list[i].LocationID]
			if !ok {
				loc, err = h.locations.GetByID(c.Request.Context(), list[i].LocationID)
				if err != nil && !errors.Is(err, locations.ErrNotFound) {
					h.logger.Error("expand slot location", zap.Error(err))
					response.Internal(c, "failed to list event slots")
					return
				}
				cache[list[i].LocationID] = loc
			}
			list[i].Location = loc
		}
	}
	response.OK(c, list)
}

// Update handles PUT /event-slots/:id (admin only).
func (h *Handler) Update(c *gin.Context) {
	var body SlotBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	slot, err := h.repo.Update(c.Request.Context(), c.Param("id"), body.toModel())
	if err != nil {
		h.respondWriteError(c, err, "update event slot")
		return
	}
	response.OK(c, slot)
}

// Delete handles DELETE /event-slots/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event slot not found")
			return
		}
		h.logger.Error("delete event slot", zap.Error(err))
		response.Internal(c, "failed to delete event slot")
		return
	}
	response.NoContent(c)
}

// Bulk handles POST /event-slots/bulk (admin only). The whole batch succeeds
// or fails together.
func (h *Handler) Bulk(c *gin.Context) {
	var body BulkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	created, err := h.repo.BulkCreate(c.Request.Context(), body.ConventionID, body.LocationIDs, body.Slots)
	if err != nil {
		h.respondWriteError(c, err, "create event slots")
		return
	}
	response.Created(c, created)
}

func expandsLocation(param string) bool {
	for _, p := range strings.Split(param, ",") {
		if strings.TrimSpace(p) == "location" {
			return true
		}
	}
	return false
}
