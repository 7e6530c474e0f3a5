package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pixelgram/internal/model"
	"pixelgram/internal/repository"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
)

// UserService handles profile reads, search and profile updates.
type UserService struct {
	userRepo repository.UserRepository
	identity *IdentityService
}

func NewUserService(userRepo repository.UserRepository, identity *IdentityService) *UserService {
	return &UserService{userRepo: userRepo, identity: identity}
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, subject string) (*model.User, error) {
	return s.identity.Resolve(ctx, subject)
}

// GetProfile returns a user's public profile by username. Open to anonymous
// callers.
func (s *UserService) GetProfile(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if err == model.ErrUserNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

// Search returns users whose username starts with the query, most followed
// first. An empty query returns an empty list.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.UserSummary{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	users, err := s.userRepo.Search(ctx, strings.ToLower(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// UpdateProfile applies the caller's profile changes. Nil request fields are
// left unchanged.
func (s *UserService) UpdateProfile(ctx context.Context, subject string, req model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.identity.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		normalized := strings.ToLower(strings.TrimSpace(*req.Username))
		if err := model.ValidateUsername(normalized); err != nil {
			return nil, err
		}
		req.Username = &normalized
	}
	if req.Bio != nil && len(*req.Bio) > model.MaxBioLength {
		return nil, model.ErrBioTooLong
	}

	updated, err := s.userRepo.UpdateProfile(ctx, user.ID, req)
	if err != nil {
		if err == model.ErrUsernameExists || err == model.ErrUserNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	log.Printf("[UserService] Profile updated: user=%d", user.ID)
	return updated, nil
}
