package models

import "time"

// HostRequestStatus is the lifecycle state of a host promotion request.
type HostRequestStatus string

const (
	HostRequestPending  HostRequestStatus = "pending"
	HostRequestApproved HostRequestStatus = "approved"
	HostRequestDenied   HostRequestStatus = "denied"
)

// HostRequest tracks an attendee's request to be promoted to host.
// A user may have at most one pending request at a time.
type HostRequest struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	Status     HostRequestStatus `json:"status"`
	Message    string            `json:"message,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	ResolvedBy *string           `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// HostLink is one social/contact link on a host profile.
type HostLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Host is profile data for a user promoted to the host role.
// AvailableSlotIDs lists the event slots the host has declared availability for.
type Host struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	AttendeeID       string     `json:"attendee_id"`
	Photos           []string   `json:"photos"`
	Links            []HostLink `json:"links"`
	AvailableSlotIDs []string   `json:"available_slot_ids"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
