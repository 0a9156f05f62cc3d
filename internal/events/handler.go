package events

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/capabilities"
	"github.com/acro-planner/backend/internal/locations"
	"github.com/acro-planner/backend/internal/middleware"
	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/response"
)

// EventBody is the body for create and update requests.
type EventBody struct {
	ConventionID    *string  `json:"convention_id"`
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description"`
	PrerequisiteIDs []string `json:"prerequisite_ids"`
	EquipmentIDs    []string `json:"equipment_ids"`
	MaxStudents     int      `json:"max_students"`
}

// AssignSlotBody is the body for POST /events/:id/assign-slot.
type AssignSlotBody struct {
	SlotID string `json:"slot_id" binding:"required"`
}

// Handler handles event endpoints.
type Handler struct {
	repo           *Repository
	caps           *capabilities.Repository
	locations      *locations.Repository
	defaultPerPage int
	maxPerPage     int
	logger         *zap.Logger
}

// NewHandler creates an events handler. Browse responses are paginated with
// defaultPerPage unless the caller asks otherwise, capped at maxPerPage.
func NewHandler(repo *Repository, caps *capabilities.Repository, locs *locations.Repository, defaultPerPage, maxPerPage int, logger *zap.Logger) *Handler {
	return &Handler{
		repo:           repo,
		caps:           caps,
		locations:      locs,
		defaultPerPage: defaultPerPage,
		maxPerPage:     maxPerPage,
		logger:         logger,
	}
}

func (b *EventBody) toModel() *models.Event {
	return &models.Event{
		ConventionID:    b.ConventionID,
		Name:            b.Name,
		Description:     b.Description,
		PrerequisiteIDs: b.PrerequisiteIDs,
		EquipmentIDs:    b.EquipmentIDs,
		MaxStudents:     b.MaxStudents,
	}
}

// Create handles POST /events (host or admin).
func (h *Handler) Create(c *gin.Context) {
	var body EventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	if ok, missing := h.prerequisitesExist(c, body.PrerequisiteIDs); !ok {
		response.Unprocessable(c, "unknown prerequisite capability: "+missing)
		return
	}

	ev, err := h.repo.Create(c.Request.Context(), body.toModel())
	if err != nil {
		h.logger.Error("create event", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, ev)
}

// Get handles GET /events/:id?expand=prerequisites,slots.
func (h *Handler) Get(c *gin.Context) {
	ev, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("get event", zap.Error(err))
		response.Internal(c, "failed to fetch event")
		return
	}

	list := []models.Event{*ev}
	if err := h.expand(c, list); err != nil {
		h.logger.Error("expand event", zap.Error(err))
		response.Internal(c, "failed to fetch event")
		return
	}
	response.OK(c, list[0])
}

// List handles GET /events with the public browse filters.
func (h *Handler) List(c *gin.Context) {
	f := Filter{LocationID: c.Query("location_id")}

	if raw := c.Query("prerequisite_ids"); raw != "" {
		provided, err := h.providedSet(c, splitIDs(raw))
		if err != nil {
			h.logger.Error("expand capability parents", zap.Error(err))
			response.Internal(c, "failed to list events")
			return
		}
		f.Provided = provided
		f.FilterByCapabilities = true
	}
	f.Partial = c.Query("match") == "partial"
	if f.Partial && !f.FilterByCapabilities {
		f.Provided = map[string]bool{}
		f.FilterByCapabilities = true
	}

	var ok bool
	if f.From, ok = parseTimeParam(c, "from"); !ok {
		return
	}
	if f.To, ok = parseTimeParam(c, "to"); !ok {
		return
	}

	h.browse(c, f)
}

// ListFiltered handles GET /events/filtered (session): coverage is computed
// against the caller's acquired capabilities plus any explicit
// prerequisite_ids.
func (h *Handler) ListFiltered(c *gin.Context) {
	acquired, err := h.repo.AcquiredCapabilityIDs(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.logger.Error("load acquired capabilities", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}

	provided, err := h.providedSet(c, append(acquired, splitIDs(c.Query("prerequisite_ids"))...))
	if err != nil {
		h.logger.Error("expand capability parents", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}

	f := Filter{
		Provided:             provided,
		FilterByCapabilities: true,
		Partial:              c.Query("match") == "partial",
		LocationID:           c.Query("location_id"),
	}
	var ok bool
	if f.From, ok = parseTimeParam(c, "from"); !ok {
		return
	}
	if f.To, ok = parseTimeParam(c, "to"); !ok {
		return
	}

	h.browse(c, f)
}

func (h *Handler) browse(c *gin.Context, f Filter) {
	list, err := h.repo.List(c.Request.Context(), c.Query("convention_id"), c.Query("search"))
	if err != nil {
		h.logger.Error("list events", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}

	ids := make([]string, len(list))
	for i, ev := range list {
		ids[i] = ev.ID
	}
	slots, err := h.repo.SlotsByEvent(c.Request.Context(), ids)
	if err != nil {
		h.logger.Error("load event slots", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}

	filtered := Apply(list, slots, f)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, err := strconv.Atoi(c.Query("per_page"))
	if err != nil || perPage <= 0 {
		perPage = h.defaultPerPage
	}
	if h.maxPerPage > 0 && perPage > h.maxPerPage {
		perPage = h.maxPerPage
	}
	paged := Paginate(filtered, page, perPage)

	if err := h.expand(c, paged); err != nil {
		h.logger.Error("expand events", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	if page < 1 {
		page = 1
	}
	response.OK(c, gin.H{
		"events":   paged,
		"total":    len(filtered),
		"page":     page,
		"per_page": perPage,
	})
}

// Update handles PUT /events/:id (host or admin).
func (h *Handler) Update(c *gin.Context) {
	var body EventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}
	if ok, missing := h.prerequisitesExist(c, body.PrerequisiteIDs); !ok {
		response.Unprocessable(c, "unknown prerequisite capability: "+missing)
		return
	}

	ev, err := h.repo.Update(c.Request.Context(), c.Param("id"), body.toModel())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("update event", zap.Error(err))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, ev)
}

// Delete handles DELETE /events/:id (host or admin).
func (h *Handler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("delete event", zap.Error(err))
		response.Internal(c, "failed to delete event")
		return
	}
	response.NoContent(c)
}

// AssignSlot handles POST /events/:id/assign-slot (host or admin).
func (h *Handler) AssignSlot(c *gin.Context) {
	var body AssignSlotBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Unprocessable(c, "invalid request: "+err.Error())
		return
	}

	err := h.repo.AssignSlot(c.Request.Context(), c.Param("id"), body.SlotID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "event not found")
		case errors.Is(err, ErrSlotNotFound):
			response.NotFound(c, "event slot not found")
		case errors.Is(err, ErrSlotTaken):
			response.Conflict(c, "event slot already holds another event")
		default:
			h.logger.Error("assign slot", zap.Error(err))
			response.Internal(c, "failed to assign slot")
		}
		return
	}
	response.NoContent(c)
}

// UnassignSlot handles DELETE /events/:id/unassign-slot/:slotID (host or admin).
func (h *Handler) UnassignSlot(c *gin.Context) {
	err := h.repo.UnassignSlot(c.Request.Context(), c.Param("id"), c.Param("slotID"))
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			response.NotFound(c, "event slot not assigned to this event")
			return
		}
		h.logger.Error("unassign slot", zap.Error(err))
		response.Internal(c, "failed to unassign slot")
		return
	}
	response.NoContent(c)
}

// expand populates prerequisites and slots (with locations) per the expand
// query parameter.
func (h *Handler) expand(c *gin.Context, list []models.Event) error {
	fields := map[string]bool{}
	for _, p := range strings.Split(c.Query("expand"), ",") {
		fields[strings.TrimSpace(p)] = true
	}
	if !fields["prerequisites"] && !fields["slots"] {
		return nil
	}

	ctx := c.Request.Context()
	if fields["prerequisites"] {
		for i := range list {
			caps, err := h.caps.GetByIDs(ctx, list[i].PrerequisiteIDs)
			if err != nil {
				return err
			}
			list[i].Prerequisites = caps
		}
	}
	if fields["slots"] {
		ids := make([]string, len(list))
		for i, ev := range list {
			ids[i] = ev.ID
		}
		slots, err := h.repo.SlotsByEvent(ctx, ids)
		if err != nil {
			return err
		}
		for i := range list {
			evSlots := slots[list[i].ID]
			for j := range evSlots {
				loc, err := h.locations.GetByID(ctx, evSlots[j].LocationID)
				if err == nil {
					evSlots[j].Location = loc
				} else if !errors.Is(err, locations.ErrNotFound) {
					return err
				}
			}
			list[i].Slots = evSlots
		}
	}
	return nil
}

// providedSet expands the given capability IDs through their parent chains
// into a lookup set. Holding a capability implies holding its parents.
func (h *Handler) providedSet(c *gin.Context, ids []string) (map[string]bool, error) {
	set := map[string]bool{}
	if len(ids) == 0 {
		return set, nil
	}
	parents, err := h.caps.ParentMap(c.Request.Context())
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
		for _, p := range capabilities.Transitive(id, parents) {
			set[p] = true
		}
	}
	return set, nil
}

func (h *Handler) prerequisitesExist(c *gin.Context, ids []string) (bool, string) {
	if len(ids) == 0 {
		return true, ""
	}
	found, err := h.caps.GetByIDs(c.Request.Context(), ids)
	if err != nil {
		h.logger.Error("lookup prerequisite capabilities", zap.Error(err))
		return true, ""
	}
	have := make(map[string]bool, len(found))
	for _, cp := range found {
		have[cp.ID] = true
	}
	for _, id := range ids {
		if !have[id] {
			return false, id
		}
	}
	return true, ""
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// parseTimeParam accepts RFC 3339 timestamps or plain dates. On a malformed
// value it writes the 422 response and reports !ok.
func parseTimeParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	response.Unprocessable(c, name+" must be an RFC 3339 timestamp or YYYY-MM-DD date")
	return nil, false
}
