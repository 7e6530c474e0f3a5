package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pixelgram/internal/model"
	"pixelgram/internal/repository"
)

func feedPosts(ids ...int64) []model.Post {
	posts := make([]model.Post, len(ids))
	for i, id := range ids {
		posts[i] = model.Post{
			ID:        id,
			UserID:    1,
			ImageURL:  "https://cdn.example.com/posts/x.jpg",
			CreatedAt: time.Unix(1700000000-id, 0),
		}
	}
	return posts
}

func summariesFor(ids ...int64) map[int64]model.UserSummary {
	out := make(map[int64]model.UserSummary, len(ids))
	for _, id := range ids {
		out[id] = model.UserSummary{ID: id, Username: "user"}
	}
	return out
}

func TestFeedService_GetFeed_AnonymousDefaults(t *testing.T) {
	viewer := testUser(1, "sub-1", "alice")
	posts := &mockPostRepository{
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			return feedPosts(postIDs...), nil
		},
	}
	users := userRepoWith(viewer)
	users.getSummariesByIDsFn = func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
		return summariesFor(ids...), nil
	}

	// The viewer has liked post 10, but browses anonymously.
	likes := newFakeInteractionRepository(10, 20)
	likes.rows[[2]int64{10, 1}] = true

	feedCache := &mockFeedCache{
		getPageFn: func(ctx context.Context, cursorScore *float64, limit int) ([]int64, []float64, error) {
			return []int64{10, 20}, []float64{1700000000, 1699999999}, nil
		},
	}

	svc := NewFeedService(posts, users, likes, newFakeInteractionRepository(10, 20), feedCache, NewIdentityService(users))

	resp, err := svc.GetFeed(context.Background(), "", nil, 10)
	if err != nil {
		t.Fatalf("anonymous feed must not error, got: %v", err)
	}
	if len(resp.Posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(resp.Posts))
	}
	for _, p := range resp.Posts {
		if p.IsLiked || p.IsBookmarked {
			t.Errorf("post %d: anonymous viewer got non-default annotations", p.ID)
		}
	}
}

func TestFeedService_GetFeed_AnnotatesForViewer(t *testing.T) {
	viewer := testUser(1, "sub-1", "alice")
	posts := &mockPostRepository{
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			return feedPosts(postIDs...), nil
		},
	}
	users := userRepoWith(viewer)
	users.getSummariesByIDsFn = func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
		return summariesFor(ids...), nil
	}

	likes := newFakeInteractionRepository(10, 20)
	likes.rows[[2]int64{10, 1}] = true
	bookmarks := newFakeInteractionRepository(10, 20)
	bookmarks.rows[[2]int64{20, 1}] = true

	feedCache := &mockFeedCache{
		getPageFn: func(ctx context.Context, cursorScore *float64, limit int) ([]int64, []float64, error) {
			return []int64{10, 20}, []float64{1700000000, 1699999999}, nil
		},
	}

	svc := NewFeedService(posts, users, likes, bookmarks, feedCache, NewIdentityService(users))

	resp, err := svc.GetFeed(context.Background(), "sub-1", nil, 10)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	byID := make(map[int64]model.FeedPost)
	for _, p := range resp.Posts {
		byID[p.ID] = p
	}
	if !byID[10].IsLiked || byID[10].IsBookmarked {
		t.Errorf("post 10 = {liked:%t bookmarked:%t}, want {liked:true bookmarked:false}", byID[10].IsLiked, byID[10].IsBookmarked)
	}
	if byID[20].IsLiked || !byID[20].IsBookmarked {
		t.Errorf("post 20 = {liked:%t bookmarked:%t}, want {liked:false bookmarked:true}", byID[20].IsLiked, byID[20].IsBookmarked)
	}
}

func TestFeedService_GetFeed_WarmsColdCache(t *testing.T) {
	posts := &mockPostRepository{
		getRecentFn: func(ctx context.Context, limit int) ([]repository.PostScoreRow, error) {
			return []repository.PostScoreRow{{ID: 10, Timestamp: 1700000000}}, nil
		},
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			return feedPosts(postIDs...), nil
		},
	}
	users := &mockUserRepository{
		getSummariesByIDsFn: func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
			return summariesFor(ids...), nil
		},
	}

	feedCache := &mockFeedCache{
		existsFn: func(ctx context.Context) (bool, error) { return false, nil },
		getPageFn: func(ctx context.Context, cursorScore *float64, limit int) ([]int64, []float64, error) {
			return []int64{10}, []float64{1700000000}, nil
		},
	}

	svc := NewFeedService(posts, users, newFakeInteractionRepository(10), newFakeInteractionRepository(10), feedCache, NewIdentityService(users))

	if _, err := svc.GetFeed(context.Background(), "", nil, 10); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if feedCache.warmCalls != 1 {
		t.Errorf("warm calls = %d, want 1", feedCache.warmCalls)
	}
}

func TestFeedService_GetFeed_FallsBackToDatabase(t *testing.T) {
	dbHits := 0
	posts := &mockPostRepository{
		getPageFn: func(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error) {
			dbHits++
			return feedPosts(10), nil, nil
		},
	}
	users := &mockUserRepository{
		getSummariesByIDsFn: func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
			return summariesFor(ids...), nil
		},
	}

	feedCache := &mockFeedCache{
		existsFn: func(ctx context.Context) (bool, error) {
			return false, errors.New("redis down")
		},
	}

	svc := NewFeedService(posts, users, newFakeInteractionRepository(10), newFakeInteractionRepository(10), feedCache, NewIdentityService(users))

	resp, err := svc.GetFeed(context.Background(), "", nil, 10)
	if err != nil {
		t.Fatalf("cache outage must not fail reads, got: %v", err)
	}
	if dbHits != 1 {
		t.Errorf("database hits = %d, want 1", dbHits)
	}
	if len(resp.Posts) != 1 {
		t.Errorf("posts = %d, want 1", len(resp.Posts))
	}
}

func TestFeedService_GetFeed_CachePagination(t *testing.T) {
	posts := &mockPostRepository{
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			return feedPosts(postIDs...), nil
		},
	}
	users := &mockUserRepository{
		getSummariesByIDsFn: func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
			return summariesFor(ids...), nil
		},
	}

	// Cache returns limit+1 entries: another page exists.
	feedCache := &mockFeedCache{
		getPageFn: func(ctx context.Context, cursorScore *float64, limit int) ([]int64, []float64, error) {
			if limit != 3 {
				t.Errorf("cache limit = %d, want over-fetch of 3", limit)
			}
			return []int64{10, 20, 30}, []float64{1700000000, 1699999999, 1699999998}, nil
		},
	}

	svc := NewFeedService(posts, users, newFakeInteractionRepository(10, 20, 30), newFakeInteractionRepository(10, 20, 30), feedCache, NewIdentityService(users))

	resp, err := svc.GetFeed(context.Background(), "", nil, 2)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(resp.Posts) != 2 {
		t.Errorf("posts = %d, want 2", len(resp.Posts))
	}
	if !resp.HasMore || resp.NextCursor == nil {
		t.Fatal("expected next cursor for over-full page")
	}
	if *resp.NextCursor != "20:1699999999" {
		t.Errorf("next cursor = %q, want %q", *resp.NextCursor, "20:1699999999")
	}
}

func TestFeedService_GetUserPosts_UnknownUser(t *testing.T) {
	users := &mockUserRepository{}
	svc := NewFeedService(&mockPostRepository{}, users, newFakeInteractionRepository(), newFakeInteractionRepository(), &mockFeedCache{}, NewIdentityService(users))

	_, err := svc.GetUserPosts(context.Background(), "", "ghost", nil, 10)
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestFeedService_GetBookmarked(t *testing.T) {
	viewer := testUser(1, "sub-1", "alice")
	posts := &mockPostRepository{
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			return feedPosts(postIDs...), nil
		},
	}
	users := userRepoWith(viewer)
	users.getSummariesByIDsFn = func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
		return summariesFor(ids...), nil
	}

	bookmarks := newFakeInteractionRepository(10, 20)
	bookmarks.rows[[2]int64{10, 1}] = true
	bookmarks.rows[[2]int64{20, 1}] = true
	bookmarks.order[1] = []int64{20, 10}

	svc := NewFeedService(posts, users, newFakeInteractionRepository(10, 20), bookmarks, &mockFeedCache{}, NewIdentityService(users))

	resp, err := svc.GetBookmarked(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(resp.Posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(resp.Posts))
	}
	if resp.Posts[0].ID != 20 {
		t.Errorf("first post = %d, want newest bookmark 20", resp.Posts[0].ID)
	}
	for _, p := range resp.Posts {
		if !p.IsBookmarked {
			t.Errorf("post %d: is_bookmarked = false on the bookmarks tab", p.ID)
		}
	}

	// Anonymous callers cannot list bookmarks.
	_, err = svc.GetBookmarked(context.Background(), "")
	if !errors.Is(err, model.ErrUnauthenticated) {
		t.Errorf("anonymous err = %v, want ErrUnauthenticated", err)
	}
}
