package events

import (
	"time"

	"github.com/acro-planner/backend/internal/models"
)

// Filter narrows an event listing. All set fields are AND-combined.
type Filter struct {
	// Provided is the set of capability IDs the caller holds (including
	// capabilities implied through parent chains).
	Provided map[string]bool
	// FilterByCapabilities toggles prerequisite coverage filtering; when
	// false, Provided is ignored.
	FilterByCapabilities bool
	// Partial keeps unqualified events in the result and annotates every
	// event with its fully_qualified flag instead of dropping them.
	Partial bool

	LocationID string
	From       *time.Time
	To         *time.Time
}

// Covers reports whether provided includes every required capability.
// An event with no prerequisites is covered by any set, including the empty one.
func Covers(required []string, provided map[string]bool) bool {
	for _, id := range required {
		if !provided[id] {
			return false
		}
	}
	return true
}

// slotMatches reports whether the slot satisfies the location and date-range
// parts of the filter. Intervals are half-open, so a slot ending exactly at
// From does not match.
func (f Filter) slotMatches(s models.EventSlot) bool {
	if f.LocationID != "" && s.LocationID != f.LocationID {
		return false
	}
	if f.From != nil && !s.EndTime.After(*f.From) {
		return false
	}
	if f.To != nil && !s.StartTime.Before(*f.To) {
		return false
	}
	return true
}

// scheduleMatches reports whether the event passes the slot-based filters.
// Events with no slots only pass when no slot-based filter is set.
func (f Filter) scheduleMatches(slots []models.EventSlot) bool {
	if f.LocationID == "" && f.From == nil && f.To == nil {
		return true
	}
	for _, s := range slots {
		if f.slotMatches(s) {
			return true
		}
	}
	return false
}

// Apply filters events in place order, consulting slots (keyed by event ID)
// for the schedule-based criteria. In partial mode unqualified events are kept
// and every returned event carries its fully_qualified flag.
func Apply(list []models.Event, slots map[string][]models.EventSlot, f Filter) []models.Event {
	out := make([]models.Event, 0, len(list))
	for _, ev := range list {
		if !f.scheduleMatches(slots[ev.ID]) {
			continue
		}
		if f.FilterByCapabilities {
			qualified := Covers(ev.PrerequisiteIDs, f.Provided)
			if f.Partial {
				flag := qualified
				ev.FullyQualified = &flag
			} else if !qualified {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}

// Paginate slices the filtered list. page is 1-based; perPage <= 0 disables
// pagination.
func Paginate(list []models.Event, page, perPage int) []models.Event {
	if perPage <= 0 {
		return list
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(list) {
		return []models.Event{}
	}
	end := start + perPage
	if end > len(list) {
		end = len(list)
	}
	return list[start:end]
}
