package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"pixelgram/internal/model"
)

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create provisions a user row linked to an external subject id.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (external_id, username, display_name, avatar_url, avatar_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, follower_count, following_count, post_count, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.ExternalID,
		u.Username,
		u.DisplayName,
		u.AvatarURL,
		u.AvatarKey,
	)

	err := row.Scan(
		&u.ID,
		&u.FollowerCount,
		&u.FollowingCount,
		&u.PostCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "users_username_key" {
			return model.ErrUsernameExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, external_id, username, display_name, avatar_url, avatar_key, bio,
		       follower_count, following_count, post_count, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByExternalID retrieves a user by the identity provider's subject id.
func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	query := `
		SELECT id, external_id, username, display_name, avatar_url, avatar_key, bio,
		       follower_count, following_count, post_count, created_at, updated_at
		FROM users
		WHERE external_id = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, externalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by external id: %w", err)
	}

	return &u, nil
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT id, external_id, username, display_name, avatar_url, avatar_key, bio,
		       follower_count, following_count, post_count, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &u, nil
}

// ExistsByUsername checks if a username is already taken
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	searchQuery := `
		SELECT id, username, display_name, avatar_url
		FROM users
		WHERE username ILIKE $1
		ORDER BY follower_count DESC
		LIMIT $2
	`

	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, searchQuery, query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return users, nil
}

// UpdateProfile mutates the caller-editable fields using COALESCE so nil
// request fields leave the stored value untouched.
func (r *userRepository) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error) {
	query := `
		UPDATE users
		SET username     = COALESCE($1, username),
		    display_name = COALESCE($2, display_name),
		    bio          = COALESCE($3, bio),
		    avatar_url   = COALESCE($4, avatar_url),
		    avatar_key   = COALESCE($5, avatar_key),
		    updated_at   = NOW()
		WHERE id = $6
		RETURNING id, external_id, username, display_name, avatar_url, avatar_key, bio,
		          follower_count, following_count, post_count, created_at, updated_at
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query,
		req.Username, req.DisplayName, req.Bio, req.AvatarURL, req.AvatarKey, userID)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, model.ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return &u, nil
}

// GetSummariesByIDs fetches author summaries for a set of users in one query.
func (r *userRepository) GetSummariesByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	if len(ids) == 0 {
		return map[int64]model.UserSummary{}, nil
	}

	query := `
		SELECT id, username, display_name, avatar_url
		FROM users
		WHERE id = ANY($1)
	`
	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}

	result := make(map[int64]model.UserSummary, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}
