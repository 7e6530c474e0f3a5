package model

import (
	"errors"
	"strings"
	"time"
)

// User represents a provisioned user in the system. Identity issuance lives
// with the external provider; ExternalID is the provider's stable subject id.
type User struct {
	ID             int64     `db:"id" json:"id"`
	ExternalID     string    `db:"external_id" json:"-"` // provider subject, unique, immutable
	Username       string    `db:"username" json:"username"`
	DisplayName    *string   `db:"display_name" json:"display_name"`
	AvatarURL      *string   `db:"avatar_url" json:"avatar_url"`
	AvatarKey      *string   `db:"avatar_key" json:"-"`
	Bio            *string   `db:"bio" json:"bio"`
	FollowerCount  int       `db:"follower_count" json:"follower_count"`
	FollowingCount int       `db:"following_count" json:"following_count"`
	PostCount      int       `db:"post_count" json:"post_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the author projection attached to posts, stories and comments.
type UserSummary struct {
	ID          int64   `db:"id" json:"id"`
	Username    string  `db:"username" json:"username"`
	DisplayName *string `db:"display_name" json:"display_name"`
	AvatarURL   *string `db:"avatar_url" json:"avatar_url"`
}

// Summary projects a full user down to its display fields.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// ProvisionUserRequest carries the fields synced from the identity provider
// on first contact (webhook payload).
type ProvisionUserRequest struct {
	ExternalID  string  `json:"external_id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

// UpdateProfileRequest carries the caller-editable profile fields.
// Nil means "leave unchanged".
type UpdateProfileRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	AvatarKey   *string `json:"-"`
}

const (
	MaxUsernameLength = 30
	MaxBioLength      = 150
)

// ValidateUsername enforces the username shape shared by provisioning and
// profile updates.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > MaxUsernameLength {
		return ErrInvalidUsername
	}
	for _, r := range username {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' && r != '.' {
			return ErrInvalidUsername
		}
	}
	return nil
}

var (
	// ErrUnauthenticated is returned when the request carries no valid caller identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUserNotProvisioned is returned when the caller is authenticated but no
	// user row is linked to the external subject yet. This is a legitimate
	// first-contact state, distinct from ErrUnauthenticated.
	ErrUserNotProvisioned = errors.New("user not provisioned")

	// ErrUserNotFound is returned when a referenced user cannot be found.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when a username is already taken.
	ErrUsernameExists = errors.New("username already exists")

	// ErrInvalidUsername is returned when a username fails validation.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrBioTooLong is returned when a profile bio exceeds MaxBioLength.
	ErrBioTooLong = errors.New("bio too long")
)
