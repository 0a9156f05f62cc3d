package models

import "time"

// Event is a workshop/class that may declare capability prerequisites.
type Event struct {
	ID              string       `json:"id"`
	ConventionID    *string      `json:"convention_id,omitempty"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	PrerequisiteIDs []string     `json:"prerequisite_ids"`
	EquipmentIDs    []string     `json:"equipment_ids"`
	MaxStudents     int          `json:"max_students"`
	Prerequisites   []Capability `json:"prerequisites,omitempty"` // populated with expand=prerequisites
	Slots           []EventSlot  `json:"slots,omitempty"`         // populated with expand=slots
	FullyQualified  *bool        `json:"fully_qualified,omitempty"` // populated in partial-match browse mode
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// EventSlot is a concrete scheduled occurrence at a location, half-open [start, end).
type EventSlot struct {
	ID           string    `json:"id"`
	ConventionID *string   `json:"convention_id,omitempty"`
	LocationID   string    `json:"location_id"`
	EventID      *string   `json:"event_id,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	DayNumber    int       `json:"day_number"`
	Location     *Location `json:"location,omitempty"` // populated with expand=location
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
