package service

import (
	"context"
	"log"

	"pixelgram/internal/model"
	"pixelgram/internal/repository"
)

// InteractionService exposes the two existence-based toggles. Each call is a
// strict flip, not a set: calling twice flips twice, and the returned state
// always equals the post-call row existence.
type InteractionService struct {
	likeRepo     repository.InteractionRepository
	bookmarkRepo repository.InteractionRepository
	identity     *IdentityService
}

func NewInteractionService(
	likeRepo repository.InteractionRepository,
	bookmarkRepo repository.InteractionRepository,
	identity *IdentityService,
) *InteractionService {
	return &InteractionService{
		likeRepo:     likeRepo,
		bookmarkRepo: bookmarkRepo,
		identity:     identity,
	}
}

// ToggleLike flips the caller's like on a post. The row flip and the
// like_count adjustment commit atomically in the repository.
func (s *InteractionService) ToggleLike(ctx context.Context, subject string, postID int64) (model.ToggleResult, error) {
	return s.toggle(ctx, subject, postID, s.likeRepo, model.InteractionLike)
}

// ToggleBookmark flips the caller's bookmark on a post. Bookmarks share the
// toggle semantics with likes but use their own storage and counter.
func (s *InteractionService) ToggleBookmark(ctx context.Context, subject string, postID int64) (model.ToggleResult, error) {
	return s.toggle(ctx, subject, postID, s.bookmarkRepo, model.InteractionBookmark)
}

func (s *InteractionService) toggle(ctx context.Context, subject string, postID int64, repo repository.InteractionRepository, kind model.InteractionKind) (model.ToggleResult, error) {
	user, err := s.identity.Resolve(ctx, subject)
	if err != nil {
		return model.ToggleResult{}, err
	}

	result, err := repo.Toggle(ctx, postID, user.ID)
	if err != nil {
		return model.ToggleResult{}, err
	}

	log.Printf("[InteractionService] Toggle %s: user=%d post=%d active=%t count=%d",
		kind, user.ID, postID, result.Active, result.Count)
	return result, nil
}
