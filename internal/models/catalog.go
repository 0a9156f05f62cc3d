package models

import (
	"encoding/json"
	"time"
)

// Capability is a skill/prerequisite tag (e.g. "Handstand") that an event may require.
// Parent IDs form an acyclic chain of capabilities implied by this one.
type Capability struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	ParentCapabilityIDs  []string  `json:"parent_capability_ids"`
	Media                []string  `json:"media"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Equipment is a physical item available at a location.
type Equipment struct {
	ID           string    `json:"id"`
	ConventionID *string   `json:"convention_id,omitempty"`
	LocationID   *string   `json:"location_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Media        []string  `json:"media"`
	Quantity     int       `json:"quantity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Location is a physical space where event slots are scheduled.
type Location struct {
	ID           string          `json:"id"`
	ConventionID *string         `json:"convention_id,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Address      string          `json:"address"`
	Capacity     *int            `json:"capacity,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	EquipmentIDs []string        `json:"equipment_ids"`
	Equipment    []Equipment     `json:"equipment,omitempty"` // populated with expand=equipment
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Convention is an acrobatics gathering that owns locations, equipment and events.
type Convention struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Location    string     `json:"location"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
