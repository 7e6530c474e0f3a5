package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"pixelgram/internal/model"
)

type storyRepository struct {
	db *sqlx.DB
}

func NewStoryRepository(db *sqlx.DB) StoryRepository {
	return &storyRepository{db: db}
}

// Replace retires any existing story owned by the user and inserts the new
// one. Delete and insert share one transaction: the at-most-one-live-story
// invariant holds even for readers racing with the replace.
func (r *storyRepository) Replace(ctx context.Context, story *model.Story) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM stories WHERE user_id = $1`, story.UserID)
	if err != nil {
		return fmt.Errorf("retire existing story: %w", err)
	}

	query := `
		INSERT INTO stories (user_id, image_url, storage_key, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err = tx.GetContext(ctx, story, query,
		story.UserID, story.ImageURL, story.StorageKey, story.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert story: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetActive returns non-expired stories with their owners, newest first.
// Expiry is filtered at read time; physically present expired rows are
// invisible here regardless of purge timing.
func (r *storyRepository) GetActive(ctx context.Context, now time.Time) ([]model.StoryWithOwner, error) {
	query := `
		SELECT s.id, s.user_id, s.image_url, s.storage_key, s.expires_at, s.created_at,
		       u.id as "owner.id", u.username as "owner.username",
		       u.display_name as "owner.display_name", u.avatar_url as "owner.avatar_url"
		FROM stories s
		JOIN users u ON u.id = s.user_id
		WHERE s.expires_at > $1
		ORDER BY s.created_at DESC
	`

	type storyRow struct {
		ID           int64     `db:"id"`
		UserID       int64     `db:"user_id"`
		ImageURL     string    `db:"image_url"`
		StorageKey   string    `db:"storage_key"`
		ExpiresAt    time.Time `db:"expires_at"`
		CreatedAt    time.Time `db:"created_at"`
		OwnerID      int64     `db:"owner.id"`
		OwnerName    string    `db:"owner.username"`
		OwnerDisplay *string   `db:"owner.display_name"`
		OwnerAvatar  *string   `db:"owner.avatar_url"`
	}

	var rows []storyRow
	err := r.db.SelectContext(ctx, &rows, query, now)
	if err != nil {
		return nil, fmt.Errorf("get active stories: %w", err)
	}

	stories := make([]model.StoryWithOwner, len(rows))
	for i, row := range rows {
		stories[i] = model.StoryWithOwner{
			Story: model.Story{
				ID:         row.ID,
				UserID:     row.UserID,
				ImageURL:   row.ImageURL,
				StorageKey: row.StorageKey,
				ExpiresAt:  row.ExpiresAt,
				CreatedAt:  row.CreatedAt,
			},
			Owner: model.UserSummary{
				ID:          row.OwnerID,
				Username:    row.OwnerName,
				DisplayName: row.OwnerDisplay,
				AvatarURL:   row.OwnerAvatar,
			},
		}
	}

	return stories, nil
}

// GetByOwner returns the owner's non-expired story, or nil when there is none.
func (r *storyRepository) GetByOwner(ctx context.Context, userID int64, now time.Time) (*model.Story, error) {
	query := `
		SELECT id, user_id, image_url, storage_key, expires_at, created_at
		FROM stories
		WHERE user_id = $1 AND expires_at > $2
	`
	var story model.Story
	err := r.db.GetContext(ctx, &story, query, userID, now)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get own story: %w", err)
	}
	return &story, nil
}

// DeleteByOwner removes the owner's story. Absence is a no-op, not an error.
func (r *storyRepository) DeleteByOwner(ctx context.Context, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("delete story: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// PurgeExpired reclaims storage for expired stories. The read path already
// filters on expires_at, so this can run at any time without affecting
// visibility.
func (r *storyRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired stories: %w", err)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return purged, nil
}
