package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"pixelgram/internal/model"
)

// interactionRepository implements the existence-based toggle for one
// interaction kind. The join table and counter column are fixed per instance,
// so likes and bookmarks share the algorithm but never the storage.
type interactionRepository struct {
	db            *sqlx.DB
	kind          model.InteractionKind
	joinTable     string // "post_likes" or "post_bookmarks"
	counterColumn string // "like_count" or "bookmark_count"
}

// NewLikeRepository returns the toggle repository for likes.
func NewLikeRepository(db *sqlx.DB) InteractionRepository {
	return &interactionRepository{
		db:            db,
		kind:          model.InteractionLike,
		joinTable:     "post_likes",
		counterColumn: "like_count",
	}
}

// NewBookmarkRepository returns the toggle repository for bookmarks.
func NewBookmarkRepository(db *sqlx.DB) InteractionRepository {
	return &interactionRepository{
		db:            db,
		kind:          model.InteractionBookmark,
		joinTable:     "post_bookmarks",
		counterColumn: "bookmark_count",
	}
}

// Toggle flips the (user, post) row: delete it if present, insert it if
// absent. The row mutation and the counter adjustment commit together, so a
// reader never observes a counter disagreeing with row existence. Returns
// the post-call state.
func (r *interactionRepository) Toggle(ctx context.Context, postID, userID int64) (model.ToggleResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.ToggleResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE post_id = $1 AND user_id = $2`, r.joinTable)
	result, err := tx.ExecContext(ctx, deleteQuery, postID, userID)
	if err != nil {
		return model.ToggleResult{}, fmt.Errorf("delete %s row: %w", r.kind, err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return model.ToggleResult{}, fmt.Errorf("get rows affected: %w", err)
	}

	var active bool
	var delta int
	if removed > 0 {
		active, delta = false, -1
	} else {
		insertQuery := fmt.Sprintf(`INSERT INTO %s (post_id, user_id) VALUES ($1, $2)`, r.joinTable)
		if _, err := tx.ExecContext(ctx, insertQuery, postID, userID); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				// FK violation: the post was deleted out from under us.
				return model.ToggleResult{}, model.ErrPostNotFound
			}
			return model.ToggleResult{}, fmt.Errorf("insert %s row: %w", r.kind, err)
		}
		active, delta = true, 1
	}

	count, err := r.adjustCounter(ctx, tx, postID, delta)
	if err != nil {
		return model.ToggleResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.ToggleResult{}, fmt.Errorf("commit transaction: %w", err)
	}

	return model.ToggleResult{Active: active, Count: count}, nil
}

// adjustCounter is the single authoritative counter update path for this
// kind. A post that vanished yields ErrPostNotFound, which rolls back the
// row flip with it.
func (r *interactionRepository) adjustCounter(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) (int, error) {
	query := fmt.Sprintf(
		`UPDATE posts SET %s = %s + $1, updated_at = NOW() WHERE id = $2 RETURNING %s`,
		r.counterColumn, r.counterColumn, r.counterColumn)

	var count int
	err := tx.GetContext(ctx, &count, query, delta, postID)
	if err == sql.ErrNoRows {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", r.counterColumn, err)
	}
	return count, nil
}

// Check reports which of the given posts carry a row for the user.
func (r *interactionRepository) Check(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	if len(postIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := fmt.Sprintf(`SELECT post_id FROM %s WHERE user_id = $1 AND post_id = ANY($2)`, r.joinTable)
	var activeIDs []int64
	err := r.db.SelectContext(ctx, &activeIDs, query, userID, pq.Array(postIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("check %s rows: %w", r.kind, err)
	}

	result := make(map[int64]bool, len(postIDs))
	for _, id := range postIDs {
		result[id] = false
	}
	for _, id := range activeIDs {
		result[id] = true
	}

	return result, nil
}

// CountFor returns the true row count for a post.
func (r *interactionRepository) CountFor(ctx context.Context, postID int64) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE post_id = $1`, r.joinTable)

	var count int
	err := r.db.GetContext(ctx, &count, query, postID)
	if err != nil {
		return 0, fmt.Errorf("count %s rows: %w", r.kind, err)
	}
	return count, nil
}

// PostIDsFor returns the user's toggled post ids, newest toggle first.
func (r *interactionRepository) PostIDsFor(ctx context.Context, userID int64, limit int) ([]int64, error) {
	query := fmt.Sprintf(
		`SELECT post_id FROM %s WHERE user_id = $1 ORDER BY created_at DESC, post_id DESC LIMIT $2`,
		r.joinTable)

	var postIDs []int64
	err := r.db.SelectContext(ctx, &postIDs, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get %s post ids: %w", r.kind, err)
	}
	return postIDs, nil
}
