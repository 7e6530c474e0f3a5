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
	DefaultCommentLimit = 20
	MaxCommentLimit     = 50
)

// CommentService handles adding, listing and removing comments on posts.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	identity    *IdentityService
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	identity *IdentityService,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		identity:    identity,
	}
}

// Add creates a comment on a post. Content is trimmed before validation so a
// whitespace-only body is rejected as empty. The insert and the post's
// comment_count increment commit atomically in the repository.
func (s *CommentService) Add(ctx context.Context, subject string, postID int64, req model.AddCommentRequest) (*model.Comment, error) {
	user, err := s.identity.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrEmptyComment
	}
	if len(content) > model.MaxCommentLength {
		return nil, model.ErrCommentTooLong
	}

	comment, err := s.commentRepo.Create(ctx, postID, user.ID, content)
	if err != nil {
		if err == model.ErrPostNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}

	summary := user.Summary()
	comment.Author = &summary

	log.Printf("[CommentService] Comment added: user=%d post=%d comment=%d", user.ID, postID, comment.ID)
	return comment, nil
}

// List returns a page of a post's comments, newest first, with authors
// attached. Open to anonymous callers.
func (s *CommentService) List(ctx context.Context, postID int64, cursor *string, limit int) (*model.CommentListResponse, error) {
	if limit <= 0 {
		limit = DefaultCommentLimit
	}
	if limit > MaxCommentLimit {
		limit = MaxCommentLimit
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comments, nextCursor, err := s.commentRepo.GetByPostID(ctx, postID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return &model.CommentListResponse{
		Comments:   comments,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// Delete removes the caller's own comment and decrements the post's counter.
func (s *CommentService) Delete(ctx context.Context, subject string, commentID int64) error {
	user, err := s.identity.Resolve(ctx, subject)
	if err != nil {
		return err
	}

	if err := s.commentRepo.Delete(ctx, commentID, user.ID); err != nil {
		if err == model.ErrCommentNotFound || err == model.ErrNotCommentOwner {
			return err
		}
		return fmt.Errorf("delete comment: %w", err)
	}

	log.Printf("[CommentService] Comment deleted: user=%d comment=%d", user.ID, commentID)
	return nil
}
