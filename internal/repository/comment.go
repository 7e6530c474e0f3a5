package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"pixelgram/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment and increments the post's comment_count in the
// same transaction, so the counter never disagrees with row existence.
func (r *commentRepository) Create(ctx context.Context, postID, userID int64, content string) (*model.Comment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO post_comments (post_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, post_id, user_id, content, created_at
	`
	var comment model.Comment
	err = tx.GetContext(ctx, &comment, query, postID, userID, content)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE posts SET comment_count = comment_count + 1, updated_at = NOW() WHERE id = $1`, postID)
	if err != nil {
		return nil, fmt.Errorf("increment comment count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, model.ErrPostNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &comment, nil
}

// GetByPostID returns paginated comments for a post with their authors.
func (r *commentRepository) GetByPostID(ctx context.Context, postID int64, cursor *string, limit int) ([]model.Comment, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
			       u.id as "author.id", u.username as "author.username",
			       u.display_name as "author.display_name", u.avatar_url as "author.avatar_url"
			FROM post_comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.post_id = $1
			ORDER BY c.created_at DESC, c.id DESC
			LIMIT $2
		`
		args = []interface{}{postID, limit + 1}
	} else {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `
			SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
			       u.id as "author.id", u.username as "author.username",
			       u.display_name as "author.display_name", u.avatar_url as "author.avatar_url"
			FROM post_comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.post_id = $1 AND (c.created_at, c.id) < ($2, $3)
			ORDER BY c.created_at DESC, c.id DESC
			LIMIT $4
		`
		args = []interface{}{postID, ts, id, limit + 1}
	}

	type commentRow struct {
		ID             int64     `db:"id"`
		PostID         int64     `db:"post_id"`
		UserID         int64     `db:"user_id"`
		Content        string    `db:"content"`
		CreatedAt      time.Time `db:"created_at"`
		AuthorID       int64     `db:"author.id"`
		AuthorUsername string    `db:"author.username"`
		AuthorDisplay  *string   `db:"author.display_name"`
		AuthorAvatar   *string   `db:"author.avatar_url"`
	}

	var rows []commentRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("get comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = model.Comment{
			ID:        row.ID,
			PostID:    row.PostID,
			UserID:    row.UserID,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
			Author: &model.UserSummary{
				ID:          row.AuthorID,
				Username:    row.AuthorUsername,
				DisplayName: row.AuthorDisplay,
				AvatarURL:   row.AuthorAvatar,
			},
		}
	}

	var nextCursor *string
	if len(comments) > limit {
		comments = comments[:limit]
		last := comments[len(comments)-1]
		c := formatCursor(last.CreatedAt, last.ID)
		nextCursor = &c
	}

	return comments, nextCursor, nil
}

// Delete removes a comment and decrements the counter in one transaction.
// Only the comment owner may delete.
func (r *commentRepository) Delete(ctx context.Context, commentID, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var comment struct {
		PostID int64 `db:"post_id"`
		UserID int64 `db:"user_id"`
	}
	err = tx.GetContext(ctx, &comment, `SELECT post_id, user_id FROM post_comments WHERE id = $1`, commentID)
	if err == sql.ErrNoRows {
		return model.ErrCommentNotFound
	}
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}
	if comment.UserID != userID {
		return model.ErrNotCommentOwner
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM post_comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE posts SET comment_count = comment_count - 1, updated_at = NOW() WHERE id = $1`, comment.PostID)
	if err != nil {
		return fmt.Errorf("decrement comment count: %w", err)
	}

	return tx.Commit()
}
