package models

import "time"

// Attendee links a user to a convention (nil convention for the general attendee role).
type Attendee struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ConventionID *string   `json:"convention_id,omitempty"`
	IsRegistered bool      `json:"is_registered"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CommitmentLevel grades a selection from casual interest to commitment.
type CommitmentLevel string

const (
	CommitmentInterested CommitmentLevel = "interested"
	CommitmentMaybe      CommitmentLevel = "maybe"
	CommitmentCommitted  CommitmentLevel = "committed"
)

// ValidCommitmentLevel reports whether s is a persisted commitment level.
func ValidCommitmentLevel(s string) bool {
	switch CommitmentLevel(s) {
	case CommitmentInterested, CommitmentMaybe, CommitmentCommitted:
		return true
	}
	return false
}

// Selection is an attendee's non-binding expression of interest in an event,
// distinct from formal registration.
type Selection struct {
	ID              string          `json:"id"`
	AttendeeID      string          `json:"attendee_id"`
	EventID         string          `json:"event_id"`
	EventSlotID     *string         `json:"event_slot_id,omitempty"`
	CommitmentLevel CommitmentLevel `json:"commitment_level"`
	IsSelected      bool            `json:"is_selected"`
	Event           *Event          `json:"event,omitempty"` // populated in schedule views
	Slot            *EventSlot      `json:"event_slot,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
