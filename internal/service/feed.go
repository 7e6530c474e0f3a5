package service

import (
	"context"
	"fmt"
	"log"

	"pixelgram/internal/cache"
	"pixelgram/internal/model"
	"pixelgram/internal/repository"
)

const (
	DefaultFeedLimit = 10
	MaxFeedLimit     = 50

	// BookmarkListLimit caps the bookmarks tab; it is not paginated.
	BookmarkListLimit = 100
)

// FeedService composes the public timeline and the profile/bookmark views.
// Reads go through the Redis timeline cache when it is warm and fall back to
// Postgres otherwise. Every view is annotated with the viewer's like and
// bookmark state; anonymous viewers get the defaults.
type FeedService struct {
	postRepo     repository.PostRepository
	userRepo     repository.UserRepository
	likeRepo     repository.InteractionRepository
	bookmarkRepo repository.InteractionRepository
	feedCache    cache.FeedCache
	identity     *IdentityService
}

func NewFeedService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	likeRepo repository.InteractionRepository,
	bookmarkRepo repository.InteractionRepository,
	feedCache cache.FeedCache,
	identity *IdentityService,
) *FeedService {
	return &FeedService{
		postRepo:     postRepo,
		userRepo:     userRepo,
		likeRepo:     likeRepo,
		bookmarkRepo: bookmarkRepo,
		feedCache:    feedCache,
		identity:     identity,
	}
}

// GetFeed returns one page of the public timeline, newest first. The timeline
// is unscoped: every viewer sees the same post set, differing only in their
// personal annotations.
func (s *FeedService) GetFeed(ctx context.Context, subject string, cursor *string, limit int) (*model.FeedResponse, error) {
	limit = clampLimit(limit)

	viewer, err := s.resolveViewer(ctx, subject)
	if err != nil {
		return nil, err
	}

	posts, nextCursor, err := s.feedPage(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	feedPosts, err := s.hydrate(ctx, posts, viewer)
	if err != nil {
		return nil, err
	}

	return &model.FeedResponse{
		Posts:      feedPosts,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// GetUserPosts returns one page of a single user's posts for their profile.
func (s *FeedService) GetUserPosts(ctx context.Context, subject, username string, cursor *string, limit int) (*model.FeedResponse, error) {
	limit = clampLimit(limit)

	viewer, err := s.resolveViewer(ctx, subject)
	if err != nil {
		return nil, err
	}

	owner, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if err == model.ErrUserNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("get profile owner: %w", err)
	}

	posts, nextCursor, err := s.postRepo.GetByAuthor(ctx, owner.ID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("get user posts: %w", err)
	}

	feedPosts, err := s.hydrate(ctx, posts, viewer)
	if err != nil {
		return nil, err
	}

	return &model.FeedResponse{
		Posts:      feedPosts,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// GetBookmarked returns the caller's bookmarked posts, newest bookmark first.
// Requires an authenticated, provisioned caller.
func (s *FeedService) GetBookmarked(ctx context.Context, subject string) (*model.FeedResponse, error) {
	user, err := s.identity.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}

	postIDs, err := s.bookmarkRepo.PostIDsFor(ctx, user.ID, BookmarkListLimit)
	if err != nil {
		return nil, fmt.Errorf("get bookmarked ids: %w", err)
	}

	posts, err := s.postRepo.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("get bookmarked posts: %w", err)
	}

	feedPosts, err := s.hydrate(ctx, posts, user)
	if err != nil {
		return nil, err
	}

	return &model.FeedResponse{
		Posts:   feedPosts,
		HasMore: false,
	}, nil
}

// feedPage reads one timeline page, cache first with a database fallback.
// A cold cache is warmed from the newest posts before serving.
func (s *FeedService) feedPage(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error) {
	warm, err := s.feedCache.Exists(ctx)
	if err != nil {
		log.Printf("[FeedService] Cache check failed, serving from database: %v", err)
		return s.postRepo.GetPage(ctx, cursor, limit)
	}
	if !warm {
		if err := s.warmCache(ctx); err != nil {
			log.Printf("[FeedService] Cache warm failed, serving from database: %v", err)
			return s.postRepo.GetPage(ctx, cursor, limit)
		}
	}

	var cursorScore *float64
	if cursor != nil {
		_, ts, err := splitCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		score := float64(ts)
		cursorScore = &score
	}

	// Over-fetch by one to detect whether another page exists.
	postIDs, scores, err := s.feedCache.GetPage(ctx, cursorScore, limit+1)
	if err != nil {
		log.Printf("[FeedService] Cache read failed, serving from database: %v", err)
		return s.postRepo.GetPage(ctx, cursor, limit)
	}

	var nextCursor *string
	if len(postIDs) > limit {
		postIDs = postIDs[:limit]
		scores = scores[:limit]
		last := len(postIDs) - 1
		c := joinCursor(postIDs[last], int64(scores[last]))
		nextCursor = &c
	}

	posts, err := s.postRepo.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("get feed posts: %w", err)
	}

	return posts, nextCursor, nil
}

func (s *FeedService) warmCache(ctx context.Context) error {
	rows, err := s.postRepo.GetRecent(ctx, cache.FeedCacheCap)
	if err != nil {
		return fmt.Errorf("load recent posts: %w", err)
	}

	scores := make([]cache.PostScore, len(rows))
	for i, row := range rows {
		scores[i] = cache.PostScore{PostID: row.ID, Timestamp: row.Timestamp}
	}
	if err := s.feedCache.Warm(ctx, scores); err != nil {
		return err
	}

	log.Printf("[FeedService] Timeline cache warmed: posts=%d", len(scores))
	return nil
}

// hydrate attaches authors and the viewer's like/bookmark state to a post
// page. A nil viewer (anonymous) leaves both flags false on every post.
func (s *FeedService) hydrate(ctx context.Context, posts []model.Post, viewer *model.User) ([]model.FeedPost, error) {
	if len(posts) == 0 {
		return []model.FeedPost{}, nil
	}

	authorIDs := make([]int64, 0, len(posts))
	postIDs := make([]int64, 0, len(posts))
	seen := make(map[int64]bool)
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		if !seen[p.UserID] {
			seen[p.UserID] = true
			authorIDs = append(authorIDs, p.UserID)
		}
	}

	authors, err := s.userRepo.GetSummariesByIDs(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("get feed authors: %w", err)
	}

	var liked, bookmarked map[int64]bool
	if viewer != nil {
		liked, err = s.likeRepo.Check(ctx, viewer.ID, postIDs)
		if err != nil {
			return nil, fmt.Errorf("check likes: %w", err)
		}
		bookmarked, err = s.bookmarkRepo.Check(ctx, viewer.ID, postIDs)
		if err != nil {
			return nil, fmt.Errorf("check bookmarks: %w", err)
		}
	}

	feedPosts := make([]model.FeedPost, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.UserID]
		if !ok {
			// Author row vanished between queries; drop the orphan.
			continue
		}
		p.IsLiked = liked[p.ID]
		p.IsBookmarked = bookmarked[p.ID]
		feedPosts = append(feedPosts, model.FeedPost{Post: p, Author: author})
	}

	return feedPosts, nil
}

// resolveViewer maps the subject to a user for annotation purposes. Anonymous
// and unprovisioned callers browse with defaults instead of an error.
func (s *FeedService) resolveViewer(ctx context.Context, subject string) (*model.User, error) {
	if subject == "" {
		return nil, nil
	}
	viewer, err := s.identity.Resolve(ctx, subject)
	if err != nil {
		if err == model.ErrUserNotProvisioned {
			return nil, nil
		}
		return nil, err
	}
	return viewer, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

// splitCursor parses the "id:timestamp" compound cursor shared by the cache
// and database paging paths.
func splitCursor(cursor string) (id int64, ts int64, err error) {
	if _, err := fmt.Sscanf(cursor, "%d:%d", &id, &ts); err != nil {
		return 0, 0, fmt.Errorf("invalid cursor format")
	}
	return id, ts, nil
}

func joinCursor(id, ts int64) string {
	return fmt.Sprintf("%d:%d", id, ts)
}
