package model

import (
	"errors"
	"time"
)

// Post represents an owned content item. The author reference is immutable
// after creation.
type Post struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	ImageURL      string    `db:"image_url" json:"image_url"`
	StorageKey    string    `db:"storage_key" json:"-"`
	Caption       *string   `db:"caption" json:"caption"`
	LikeCount     int       `db:"like_count" json:"like_count"`
	CommentCount  int       `db:"comment_count" json:"comment_count"`
	BookmarkCount int       `db:"bookmark_count" json:"bookmark_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields (not in the posts table)
	Author       *UserSummary `json:"author,omitempty"`
	IsLiked      bool         `json:"is_liked"`
	IsBookmarked bool         `json:"is_bookmarked"`
}

// FeedPost is an enriched post for feed display.
type FeedPost struct {
	Post
	Author UserSummary `json:"author"`
}

// FeedResponse is the paginated feed response.
type FeedResponse struct {
	Posts      []FeedPost `json:"posts"`
	NextCursor *string    `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	ImageURL   string  `json:"image_url"`
	StorageKey string  `json:"storage_key"`
	Caption    *string `json:"caption"`
}

const (
	MaxPostCaptionLength = 2200
	PostMediaFolder      = "posts"
)

var (
	ErrPostNotFound   = errors.New("post not found")
	ErrNotPostOwner   = errors.New("not the owner of this post")
	ErrNoImage        = errors.New("an image is required")
	ErrCaptionTooLong = errors.New("caption too long")
)
