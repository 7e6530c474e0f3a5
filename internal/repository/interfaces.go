package repository

import (
	"context"
	"time"

	"pixelgram/internal/model"
)

type UserRepository interface {
	// Create provisions a user linked to an external subject id.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByExternalID looks a user up by the identity provider's subject id.
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	// UpdateProfile mutates the caller-editable fields; nil fields are untouched.
	UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error)
	GetSummariesByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
}

type PostRepository interface {
	Create(ctx context.Context, userID int64, imageURL, storageKey string, caption *string) (*model.Post, error)
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	// Delete hard-removes a post and its dependent like/bookmark/comment rows
	// in one transaction. Only the owner may delete.
	Delete(ctx context.Context, postID, userID int64) error
	// GetPage returns a reverse-chronological page of all posts (public feed).
	GetPage(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error)
	// GetByAuthor returns a reverse-chronological page scoped to one author.
	GetByAuthor(ctx context.Context, userID int64, cursor *string, limit int) ([]model.Post, *string, error)
	GetRecent(ctx context.Context, limit int) ([]PostScoreRow, error)
	Exists(ctx context.Context, postID int64) (bool, error)
	// ReconcileCounters recomputes like/bookmark/comment counters from row
	// existence and fixes drift. Returns the number of corrected posts.
	ReconcileCounters(ctx context.Context) (int64, error)
}

// InteractionRepository is the single authoritative path for existence-based
// toggles. One implementation per kind; likes and bookmarks never share
// storage or counters.
type InteractionRepository interface {
	// Toggle flips the (user, post) row and adjusts the post's denormalized
	// counter in the same transaction. Returns the post-call state.
	Toggle(ctx context.Context, postID, userID int64) (model.ToggleResult, error)
	// Check reports which of the given posts carry a row for the user.
	Check(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	// CountFor returns the true row count for a post (reconciliation backstop).
	CountFor(ctx context.Context, postID int64) (int, error)
	// PostIDsFor returns the user's toggled post ids, newest first.
	PostIDsFor(ctx context.Context, userID int64, limit int) ([]int64, error)
}

type StoryRepository interface {
	// Replace deletes any existing story owned by the user and inserts the new
	// one in a single transaction, so readers never observe two live stories
	// for one owner.
	Replace(ctx context.Context, story *model.Story) error
	// GetActive returns non-expired stories joined with their owners, newest
	// first. The visibility instant is supplied by the caller.
	GetActive(ctx context.Context, now time.Time) ([]model.StoryWithOwner, error)
	// GetByOwner returns the owner's non-expired story, or nil.
	GetByOwner(ctx context.Context, userID int64, now time.Time) (*model.Story, error)
	// DeleteByOwner removes the owner's story if present. Reports whether a
	// row was deleted; absence is not an error.
	DeleteByOwner(ctx context.Context, userID int64) (bool, error)
	// PurgeExpired deletes all stories with expires_at <= now and returns the
	// number of rows removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type CommentRepository interface {
	// Create inserts a comment and increments the post's comment_count in the
	// same transaction.
	Create(ctx context.Context, postID, userID int64, content string) (*model.Comment, error)
	GetByPostID(ctx context.Context, postID int64, cursor *string, limit int) ([]model.Comment, *string, error)
	// Delete removes a comment and decrements the counter. Only the owner may
	// delete.
	Delete(ctx context.Context, commentID, userID int64) error
}

// PostScoreRow pairs a post id with its creation timestamp for cache warming.
type PostScoreRow struct {
	ID        int64 `db:"id"`
	Timestamp int64 `db:"timestamp"`
}
