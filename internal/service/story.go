package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"pixelgram/internal/model"
	"pixelgram/internal/repository"
)

// StoryService owns the ephemeral content lifecycle: replace-one-per-user
// creation, expiry-aware reads, idempotent deletion and the purge sweep.
type StoryService struct {
	storyRepo repository.StoryRepository
	identity  *IdentityService

	// now is injectable so expiry behavior can be tested with a simulated clock.
	now func() time.Time
}

func NewStoryService(storyRepo repository.StoryRepository, identity *IdentityService) *StoryService {
	return &StoryService{
		storyRepo: storyRepo,
		identity:  identity,
		now:       time.Now,
	}
}

// Create replaces the caller's story with a new one expiring in StoryTTL.
// The retire-then-insert happens as one unit in the repository, so readers
// never observe two live stories for the same owner.
func (s *StoryService) Create(ctx context.Context, subject string, req model.CreateStoryRequest) (*model.Story, error) {
	user, err := s.identity.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}

	if req.ImageURL == "" || req.StorageKey == "" {
		return nil, model.ErrNoImage
	}

	story := &model.Story{
		UserID:     user.ID,
		ImageURL:   req.ImageURL,
		StorageKey: req.StorageKey,
		ExpiresAt:  s.now().Add(model.StoryTTL),
	}

	if err := s.storyRepo.Replace(ctx, story); err != nil {
		return nil, fmt.Errorf("replace story: %w", err)
	}

	log.Printf("[StoryService] Story created: user=%d story=%d expires=%s",
		user.ID, story.ID, story.ExpiresAt.Format(time.RFC3339))
	return story, nil
}

// ListActive returns all non-expired stories with their owners, newest
// first. Anonymous callers get an empty list, not an error. The query is
// re-evaluated against the current clock on every call.
func (s *StoryService) ListActive(ctx context.Context, subject string) ([]model.StoryWithOwner, error) {
	if subject == "" {
		return []model.StoryWithOwner{}, nil
	}

	stories, err := s.storyRepo.GetActive(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list active stories: %w", err)
	}
	return stories, nil
}

// GetOwn returns the caller's non-expired story, or nil when there is none.
func (s *StoryService) GetOwn(ctx context.Context, subject string) (*model.Story, error) {
	user, err := s.identity.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}

	story, err := s.storyRepo.GetByOwner(ctx, user.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("get own story: %w", err)
	}
	return story, nil
}

// Delete removes the caller's story. Idempotent: deleting when no story
// exists is a no-op.
func (s *StoryService) Delete(ctx context.Context, subject string) error {
	user, err := s.identity.Resolve(ctx, subject)
	if err != nil {
		return err
	}

	deleted, err := s.storyRepo.DeleteByOwner(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("delete story: %w", err)
	}

	log.Printf("[StoryService] Story delete: user=%d deleted=%t", user.ID, deleted)
	return nil
}

// PurgeExpired reclaims storage for expired stories and returns the count.
// Purge is decoupled from read-time visibility: expired rows are invisible
// to readers whether or not this has run yet, so it is safe concurrently
// with every other operation.
func (s *StoryService) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.storyRepo.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired stories: %w", err)
	}
	return purged, nil
}
