package model

import (
	"errors"
	"time"
)

// Comment is owned by (author, post).
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Joined author summary (not in the comments table)
	Author *UserSummary `json:"author,omitempty"`
}

// AddCommentRequest is the request body for adding a comment.
type AddCommentRequest struct {
	Content string `json:"content"`
}

// CommentListResponse is the paginated comment list for a post.
type CommentListResponse struct {
	Comments   []Comment `json:"comments"`
	NextCursor *string   `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
}

const MaxCommentLength = 1000

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotCommentOwner = errors.New("not the owner of this comment")
	ErrEmptyComment    = errors.New("comment content is empty")
	ErrCommentTooLong  = errors.New("comment too long")
)
