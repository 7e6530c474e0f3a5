package service

import (
	"context"
	"time"

	"pixelgram/internal/cache"
	"pixelgram/internal/model"
	"pixelgram/internal/queue"
	"pixelgram/internal/repository"
)

// Services depend on repository interfaces, so tests swap in mocks with
// per-test behavior via function fields. Shared by all service tests.

type mockUserRepository struct {
	createFn            func(ctx context.Context, user *model.User) error
	getByIDFn           func(ctx context.Context, id int64) (*model.User, error)
	getByExternalIDFn   func(ctx context.Context, externalID string) (*model.User, error)
	getByUsernameFn     func(ctx context.Context, username string) (*model.User, error)
	existsByUsernameFn  func(ctx context.Context, username string) (bool, error)
	searchFn            func(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	updateProfileFn     func(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error)
	getSummariesByIDsFn func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)

	createCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	if m.getByExternalIDFn != nil {
		return m.getByExternalIDFn(ctx, externalID)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return []model.UserSummary{}, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, req)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetSummariesByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	if m.getSummariesByIDsFn != nil {
		return m.getSummariesByIDsFn(ctx, ids)
	}
	return map[int64]model.UserSummary{}, nil
}

type mockPostRepository struct {
	createFn            func(ctx context.Context, userID int64, imageURL, storageKey string, caption *string) (*model.Post, error)
	getByIDFn           func(ctx context.Context, postID int64) (*model.Post, error)
	getByIDsFn          func(ctx context.Context, postIDs []int64) ([]model.Post, error)
	deleteFn            func(ctx context.Context, postID, userID int64) error
	getPageFn           func(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error)
	getByAuthorFn       func(ctx context.Context, userID int64, cursor *string, limit int) ([]model.Post, *string, error)
	getRecentFn         func(ctx context.Context, limit int) ([]repository.PostScoreRow, error)
	existsFn            func(ctx context.Context, postID int64) (bool, error)
	reconcileCountersFn func(ctx context.Context) (int64, error)
}

func (m *mockPostRepository) Create(ctx context.Context, userID int64, imageURL, storageKey string, caption *string) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, imageURL, storageKey, caption)
	}
	return &model.Post{ID: 1, UserID: userID, ImageURL: imageURL, StorageKey: storageKey, Caption: caption}, nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, postIDs)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) Delete(ctx context.Context, postID, userID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID, userID)
	}
	return nil
}

func (m *mockPostRepository) GetPage(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error) {
	if m.getPageFn != nil {
		return m.getPageFn(ctx, cursor, limit)
	}
	return []model.Post{}, nil, nil
}

func (m *mockPostRepository) GetByAuthor(ctx context.Context, userID int64, cursor *string, limit int) ([]model.Post, *string, error) {
	if m.getByAuthorFn != nil {
		return m.getByAuthorFn(ctx, userID, cursor, limit)
	}
	return []model.Post{}, nil, nil
}

func (m *mockPostRepository) GetRecent(ctx context.Context, limit int) ([]repository.PostScoreRow, error) {
	if m.getRecentFn != nil {
		return m.getRecentFn(ctx, limit)
	}
	return []repository.PostScoreRow{}, nil
}

func (m *mockPostRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, postID)
	}
	return false, nil
}

func (m *mockPostRepository) ReconcileCounters(ctx context.Context) (int64, error) {
	if m.reconcileCountersFn != nil {
		return m.reconcileCountersFn(ctx)
	}
	return 0, nil
}

type mockCommentRepository struct {
	createFn      func(ctx context.Context, postID, userID int64, content string) (*model.Comment, error)
	getByPostIDFn func(ctx context.Context, postID int64, cursor *string, limit int) ([]model.Comment, *string, error)
	deleteFn      func(ctx context.Context, commentID, userID int64) error
}

func (m *mockCommentRepository) Create(ctx context.Context, postID, userID int64, content string) (*model.Comment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, postID, userID, content)
	}
	return &model.Comment{ID: 1, PostID: postID, UserID: userID, Content: content}, nil
}

func (m *mockCommentRepository) GetByPostID(ctx context.Context, postID int64, cursor *string, limit int) ([]model.Comment, *string, error) {
	if m.getByPostIDFn != nil {
		return m.getByPostIDFn(ctx, postID, cursor, limit)
	}
	return []model.Comment{}, nil, nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, commentID, userID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, commentID, userID)
	}
	return nil
}

type mockPublisher struct {
	publishFn func(ctx context.Context, stream string, event queue.ContentEvent) (string, error)

	published []queue.ContentEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.ContentEvent) (string, error) {
	m.published = append(m.published, event)
	if m.publishFn != nil {
		return m.publishFn(ctx, stream, event)
	}
	return "0-1", nil
}

type mockFeedCache struct {
	addPostFn    func(ctx context.Context, postID int64, timestamp int64) error
	removePostFn func(ctx context.Context, postID int64) error
	getPageFn    func(ctx context.Context, cursorScore *float64, limit int) ([]int64, []float64, error)
	warmFn       func(ctx context.Context, posts []cache.PostScore) error
	existsFn     func(ctx context.Context) (bool, error)

	warmCalls int
}

func (m *mockFeedCache) AddPost(ctx context.Context, postID int64, timestamp int64) error {
	if m.addPostFn != nil {
		return m.addPostFn(ctx, postID, timestamp)
	}
	return nil
}

func (m *mockFeedCache) RemovePost(ctx context.Context, postID int64) error {
	if m.removePostFn != nil {
		return m.removePostFn(ctx, postID)
	}
	return nil
}

func (m *mockFeedCache) GetPage(ctx context.Context, cursorScore *float64, limit int) ([]int64, []float64, error) {
	if m.getPageFn != nil {
		return m.getPageFn(ctx, cursorScore, limit)
	}
	return []int64{}, []float64{}, nil
}

func (m *mockFeedCache) Warm(ctx context.Context, posts []cache.PostScore) error {
	m.warmCalls++
	if m.warmFn != nil {
		return m.warmFn(ctx, posts)
	}
	return nil
}

func (m *mockFeedCache) Exists(ctx context.Context) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx)
	}
	return true, nil
}

// userRepoWith returns a user repository that resolves the given user by
// external id. Most tests need exactly this.
func userRepoWith(user *model.User) *mockUserRepository {
	return &mockUserRepository{
		getByExternalIDFn: func(ctx context.Context, externalID string) (*model.User, error) {
			if user != nil && externalID == user.ExternalID {
				return user, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
}

func testUser(id int64, subject, username string) *model.User {
	return &model.User{
		ID:         id,
		ExternalID: subject,
		Username:   username,
		CreatedAt:  time.Unix(1700000000, 0),
		UpdatedAt:  time.Unix(1700000000, 0),
	}
}
