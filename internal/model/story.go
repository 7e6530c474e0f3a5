package model

import (
	"errors"
	"time"
)

// StoryTTL is the fixed visibility window for a story.
const StoryTTL = 24 * time.Hour

// Story is an ephemeral content item. A user owns at most one live story at
// any instant; creating a new one retires the previous one.
//
// Lifecycle: Active (now < ExpiresAt) -> Expired (invisible to readers but
// possibly still stored) -> Purged (removed by the maintenance sweep).
// An owner delete goes Active -> Purged directly.
type Story struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	ImageURL   string    `db:"image_url" json:"image_url"`
	StorageKey string    `db:"storage_key" json:"-"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Expired reports whether the story is past its visibility window at the
// given instant. Expired stories may still physically exist until purged.
func (s *Story) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// StoryWithOwner pairs a story with its owner for display.
type StoryWithOwner struct {
	Story
	Owner UserSummary `json:"owner"`
}

// CreateStoryRequest is the request body for creating (replacing) a story.
type CreateStoryRequest struct {
	ImageURL   string `json:"image_url"`
	StorageKey string `json:"storage_key"`
}

const StoryMediaFolder = "stories"

var ErrStoryNotFound = errors.New("story not found")
