package models

import (
	"encoding/json"
	"time"
)

// Role represents a user's role in the platform.
type Role string

const (
	RoleAttendee Role = "attendee"
	RoleHost     Role = "host"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether s is one of the persisted role values.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAttendee, RoleHost, RoleAdmin:
		return true
	}
	return false
}

// User represents a platform user. PasswordHash is empty for OAuth-only accounts.
type User struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	PasswordHash   string          `json:"-"`
	OAuthOnly      bool            `json:"oauth_only"`
	Role           Role            `json:"role"`
	IsApprovedHost bool            `json:"is_approved_host"`
	UserInfo       json.RawMessage `json:"user_info,omitempty"`
	ContactInfo    json.RawMessage `json:"contact_info,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	IsApprovedHost bool      `json:"is_approved_host"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		IsApprovedHost: u.IsApprovedHost,
		CreatedAt:      u.CreatedAt,
	}
}

// PasswordResetToken is a single-use token for the forgot-password flow.
type PasswordResetToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
