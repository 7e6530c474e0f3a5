package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pixelgram/internal/model"
	"pixelgram/internal/queue"
	"pixelgram/internal/repository"
)

// PostService handles post creation, retrieval and deletion. Writes go to
// Postgres first; the timeline cache is updated asynchronously by workers
// consuming the content stream.
type PostService struct {
	postRepo     repository.PostRepository
	userRepo     repository.UserRepository
	likeRepo     repository.InteractionRepository
	bookmarkRepo repository.InteractionRepository
	identity     *IdentityService
	publisher    queue.Publisher
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	likeRepo repository.InteractionRepository,
	bookmarkRepo repository.InteractionRepository,
	identity *IdentityService,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		userRepo:     userRepo,
		likeRepo:     likeRepo,
		bookmarkRepo: bookmarkRepo,
		identity:     identity,
		publisher:    publisher,
	}
}

// Create inserts the post and publishes a post_created event for the timeline
// workers. A publish failure does not fail the request; the cache self-heals
// on the next warm.
func (s *PostService) Create(ctx context.Context, subject string, req model.CreatePostRequest) (*model.Post, error) {
	user, err := s.identity.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}

	if req.ImageURL == "" || req.StorageKey == "" {
		return nil, model.ErrNoImage
	}
	caption := req.Caption
	if caption != nil {
		trimmed := strings.TrimSpace(*caption)
		if trimmed == "" {
			caption = nil
		} else {
			if len(trimmed) > model.MaxPostCaptionLength {
				return nil, model.ErrCaptionTooLong
			}
			caption = &trimmed
		}
	}

	post, err := s.postRepo.Create(ctx, user.ID, req.ImageURL, req.StorageKey, caption)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	summary := user.Summary()
	post.Author = &summary

	event := queue.NewPostCreatedEvent(post.ID, user.ID)
	if _, err := s.publisher.Publish(ctx, queue.StreamContent, event); err != nil {
		log.Printf("[PostService] Publish post_created failed: post=%d err=%v", post.ID, err)
	}

	log.Printf("[PostService] Post created: user=%d post=%d", user.ID, post.ID)
	return post, nil
}

// Get returns a single post with its author and, for authenticated viewers,
// the viewer's like/bookmark state. Anonymous viewers get both flags false.
func (s *PostService) Get(ctx context.Context, subject string, postID int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if err == model.ErrPostNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	authors, err := s.userRepo.GetSummariesByIDs(ctx, []int64{post.UserID})
	if err != nil {
		return nil, fmt.Errorf("get post author: %w", err)
	}
	if author, ok := authors[post.UserID]; ok {
		post.Author = &author
	}

	if subject != "" {
		viewer, err := s.identity.Resolve(ctx, subject)
		if err != nil {
			// An unprovisioned viewer still sees the post, just without
			// personal annotations.
			if err != model.ErrUserNotProvisioned {
				return nil, err
			}
		} else {
			liked, err := s.likeRepo.Check(ctx, viewer.ID, []int64{post.ID})
			if err != nil {
				return nil, fmt.Errorf("check likes: %w", err)
			}
			bookmarked, err := s.bookmarkRepo.Check(ctx, viewer.ID, []int64{post.ID})
			if err != nil {
				return nil, fmt.Errorf("check bookmarks: %w", err)
			}
			post.IsLiked = liked[post.ID]
			post.IsBookmarked = bookmarked[post.ID]
		}
	}

	return post, nil
}

// Delete removes the caller's own post along with its dependent rows, then
// publishes a post_deleted event so workers drop it from the timeline cache.
func (s *PostService) Delete(ctx context.Context, subject string, postID int64) error {
	user, err := s.identity.Resolve(ctx, subject)
	if err != nil {
		return err
	}

	if err := s.postRepo.Delete(ctx, postID, user.ID); err != nil {
		if err == model.ErrPostNotFound || err == model.ErrNotPostOwner {
			return err
		}
		return fmt.Errorf("delete post: %w", err)
	}

	event := queue.NewPostDeletedEvent(postID, user.ID)
	if _, err := s.publisher.Publish(ctx, queue.StreamContent, event); err != nil {
		log.Printf("[PostService] Publish post_deleted failed: post=%d err=%v", postID, err)
	}

	log.Printf("[PostService] Post deleted: user=%d post=%d", user.ID, postID)
	return nil
}
