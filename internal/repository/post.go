package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"pixelgram/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post and bumps the author's post count in a transaction.
func (r *postRepository) Create(ctx context.Context, userID int64, imageURL, storageKey string, caption *string) (*model.Post, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var post model.Post
	query := `
		INSERT INTO posts (user_id, image_url, storage_key, caption)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, image_url, storage_key, caption,
		          like_count, comment_count, bookmark_count, created_at, updated_at
	`
	err = tx.GetContext(ctx, &post, query, userID, imageURL, storageKey, caption)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET post_count = post_count + 1 WHERE id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("increment post count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &post, nil
}

// GetByID retrieves a single post.
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `
		SELECT id, user_id, image_url, storage_key, caption,
		       like_count, comment_count, bookmark_count, created_at, updated_at
		FROM posts
		WHERE id = $1
	`
	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	return &post, nil
}

// GetByIDs retrieves multiple posts, preserving the input order.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	query := `
		SELECT id, user_id, image_url, storage_key, caption,
		       like_count, comment_count, bookmark_count, created_at, updated_at
		FROM posts
		WHERE id = ANY($1)
	`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	postsMap := make(map[int64]model.Post, len(posts))
	for _, p := range posts {
		postsMap[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if p, ok := postsMap[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}

// Delete hard-removes a post and its dependent rows in one transaction.
// Likes, bookmarks and comments for the post go with it, so no counter or
// join row can outlive the post.
func (r *postRepository) Delete(ctx context.Context, postID, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	err = tx.GetContext(ctx, &ownerID, `SELECT user_id FROM posts WHERE id = $1`, postID)
	if err == sql.ErrNoRows {
		return model.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("get post owner: %w", err)
	}
	if ownerID != userID {
		return model.ErrNotPostOwner
	}

	for _, q := range []string{
		`DELETE FROM post_likes WHERE post_id = $1`,
		`DELETE FROM post_bookmarks WHERE post_id = $1`,
		`DELETE FROM post_comments WHERE post_id = $1`,
		`DELETE FROM posts WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, postID); err != nil {
			return fmt.Errorf("cascade delete post: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET post_count = post_count - 1 WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("decrement post count: %w", err)
	}

	return tx.Commit()
}

// GetPage returns one reverse-chronological page of the public feed.
func (r *postRepository) GetPage(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT id, user_id, image_url, storage_key, caption,
			       like_count, comment_count, bookmark_count, created_at, updated_at
			FROM posts
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`
		args = []interface{}{limit + 1}
	} else {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `
			SELECT id, user_id, image_url, storage_key, caption,
			       like_count, comment_count, bookmark_count, created_at, updated_at
			FROM posts
			WHERE (created_at, id) < ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`
		args = []interface{}{ts, id, limit + 1}
	}

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("get feed page: %w", err)
	}

	return pageWithCursor(posts, limit)
}

// GetByAuthor returns one reverse-chronological page scoped to a single author.
func (r *postRepository) GetByAuthor(ctx context.Context, userID int64, cursor *string, limit int) ([]model.Post, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT id, user_id, image_url, storage_key, caption,
			       like_count, comment_count, bookmark_count, created_at, updated_at
			FROM posts
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		args = []interface{}{userID, limit + 1}
	} else {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `
			SELECT id, user_id, image_url, storage_key, caption,
			       like_count, comment_count, bookmark_count, created_at, updated_at
			FROM posts
			WHERE user_id = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`
		args = []interface{}{userID, ts, id, limit + 1}
	}

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("get author posts: %w", err)
	}

	return pageWithCursor(posts, limit)
}

// GetRecent returns the newest posts as (id, timestamp) pairs for cache warming.
func (r *postRepository) GetRecent(ctx context.Context, limit int) ([]PostScoreRow, error) {
	query := `
		SELECT id, EXTRACT(EPOCH FROM created_at)::bigint as timestamp
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1
	`
	var rows []PostScoreRow
	err := r.db.SelectContext(ctx, &rows, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}
	return rows, nil
}

// Exists checks if a post exists.
func (r *postRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID)
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

// ReconcileCounters recomputes the denormalized counters from row existence.
// The toggle/comment paths keep them consistent transactionally; this is the
// periodic backstop against drift.
func (r *postRepository) ReconcileCounters(ctx context.Context) (int64, error) {
	query := `
		UPDATE posts p
		SET like_count     = c.likes,
		    comment_count  = c.comments,
		    bookmark_count = c.bookmarks
		FROM (
			SELECT p2.id,
			       (SELECT COUNT(*) FROM post_likes     WHERE post_id = p2.id) AS likes,
			       (SELECT COUNT(*) FROM post_comments  WHERE post_id = p2.id) AS comments,
			       (SELECT COUNT(*) FROM post_bookmarks WHERE post_id = p2.id) AS bookmarks
			FROM posts p2
		) c
		WHERE p.id = c.id
		  AND (p.like_count <> c.likes OR p.comment_count <> c.comments OR p.bookmark_count <> c.bookmarks)
	`
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("reconcile counters: %w", err)
	}
	fixed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return fixed, nil
}

// pageWithCursor trims an over-fetched page to limit and builds the next cursor.
func pageWithCursor(posts []model.Post, limit int) ([]model.Post, *string, error) {
	var nextCursor *string
	if len(posts) > limit {
		posts = posts[:limit]
		last := posts[len(posts)-1]
		c := formatCursor(last.CreatedAt, last.ID)
		nextCursor = &c
	}
	return posts, nextCursor, nil
}

// Helper: parse compound cursor "id:timestamp" (unified format)
func parseCursor(cursor string) (time.Time, int64, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid cursor format")
	}
	var id int64
	var ts int64
	_, err := fmt.Sscanf(parts[0], "%d", &id)
	if err != nil {
		return time.Time{}, 0, err
	}
	_, err = fmt.Sscanf(parts[1], "%d", &ts)
	if err != nil {
		return time.Time{}, 0, err
	}
	return time.Unix(ts, 0), id, nil
}

// Helper: format compound cursor "id:timestamp" (unified format)
func formatCursor(t time.Time, id int64) string {
	return fmt.Sprintf("%d:%d", id, t.Unix())
}
