package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pixelgram/internal/model"
)

// fakeStoryRepository is a stateful in-memory story store. It honors the
// visibility instant the same way the SQL implementation does, so expiry
// behavior can be exercised with a simulated clock.
type fakeStoryRepository struct {
	nextID  int64
	byOwner map[int64]*model.Story
}

func newFakeStoryRepository() *fakeStoryRepository {
	return &fakeStoryRepository{nextID: 1, byOwner: make(map[int64]*model.Story)}
}

func (f *fakeStoryRepository) Replace(ctx context.Context, story *model.Story) error {
	story.ID = f.nextID
	f.nextID++
	cp := *story
	f.byOwner[story.UserID] = &cp
	return nil
}

func (f *fakeStoryRepository) GetActive(ctx context.Context, now time.Time) ([]model.StoryWithOwner, error) {
	var out []model.StoryWithOwner
	for _, s := range f.byOwner {
		if now.Before(s.ExpiresAt) {
			out = append(out, model.StoryWithOwner{Story: *s})
		}
	}
	return out, nil
}

func (f *fakeStoryRepository) GetByOwner(ctx context.Context, userID int64, now time.Time) (*model.Story, error) {
	s, ok := f.byOwner[userID]
	if !ok || !now.Before(s.ExpiresAt) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStoryRepository) DeleteByOwner(ctx context.Context, userID int64) (bool, error) {
	if _, ok := f.byOwner[userID]; !ok {
		return false, nil
	}
	delete(f.byOwner, userID)
	return true, nil
}

func (f *fakeStoryRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	for owner, s := range f.byOwner {
		if !now.Before(s.ExpiresAt) {
			delete(f.byOwner, owner)
			purged++
		}
	}
	return purged, nil
}

// newStoryServiceAt wires a story service against the fake repo with a
// controllable clock.
func newStoryServiceAt(repo *fakeStoryRepository, user *model.User, now *time.Time) *StoryService {
	svc := NewStoryService(repo, NewIdentityService(userRepoWith(user)))
	svc.now = func() time.Time { return *now }
	return svc
}

func TestStoryService_Create_SetsExpiry(t *testing.T) {
	user := testUser(1, "sub-1", "alice")
	repo := newFakeStoryRepository()
	now := time.Unix(1700000000, 0)
	svc := newStoryServiceAt(repo, user, &now)

	story, err := svc.Create(context.Background(), "sub-1", model.CreateStoryRequest{
		ImageURL:   "https://cdn.example.com/stories/a.jpg",
		StorageKey: "stories/a.jpg",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	want := now.Add(model.StoryTTL)
	if !story.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", story.ExpiresAt, want)
	}
}

func TestStoryService_Create_ReplacesPrevious(t *testing.T) {
	user := testUser(1, "sub-1", "alice")
	repo := newFakeStoryRepository()
	now := time.Unix(1700000000, 0)
	svc := newStoryServiceAt(repo, user, &now)

	first, err := svc.Create(context.Background(), "sub-1", model.CreateStoryRequest{
		ImageURL: "https://cdn.example.com/stories/a.jpg", StorageKey: "stories/a.jpg",
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	second, err := svc.Create(context.Background(), "sub-1", model.CreateStoryRequest{
		ImageURL: "https://cdn.example.com/stories/b.jpg", StorageKey: "stories/b.jpg",
	})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	// Only the second story survives; the owner never has two live stories.
	own, err := svc.GetOwn(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("get own: %v", err)
	}
	if own == nil {
		t.Fatal("expected a live story")
	}
	if own.ID != second.ID {
		t.Errorf("live story = %d, want %d", own.ID, second.ID)
	}
	if own.ID == first.ID {
		t.Error("first story should have been replaced")
	}

	stories, err := svc.ListActive(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(stories) != 1 {
		t.Errorf("active stories = %d, want 1", len(stories))
	}
}

func TestStoryService_Expiry_HidesStoryAfterWindow(t *testing.T) {
	user := testUser(1, "sub-1", "alice")
	repo := newFakeStoryRepository()
	now := time.Unix(1700000000, 0)
	svc := newStoryServiceAt(repo, user, &now)

	if _, err := svc.Create(context.Background(), "sub-1", model.CreateStoryRequest{
		ImageURL: "https://cdn.example.com/stories/a.jpg", StorageKey: "stories/a.jpg",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Just inside the window the story is visible.
	now = now.Add(model.StoryTTL - time.Second)
	own, err := svc.GetOwn(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("get own: %v", err)
	}
	if own == nil {
		t.Fatal("story should still be visible before expiry")
	}

	// One second past the window it disappears without any purge having run.
	now = now.Add(2 * time.Second)
	own, err = svc.GetOwn(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("get own after expiry: %v", err)
	}
	if own != nil {
		t.Error("expired story should be invisible to readers")
	}

	stories, err := svc.ListActive(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(stories) != 0 {
		t.Errorf("active stories after expiry = %d, want 0", len(stories))
	}
}

func TestStoryService_ListActive_AnonymousGetsEmptyList(t *testing.T) {
	user := testUser(1, "sub-1", "alice")
	repo := newFakeStoryRepository()
	now := time.Unix(1700000000, 0)
	svc := newStoryServiceAt(repo, user, &now)

	if _, err := svc.Create(context.Background(), "sub-1", model.CreateStoryRequest{
		ImageURL: "https://cdn.example.com/stories/a.jpg", StorageKey: "stories/a.jpg",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	stories, err := svc.ListActive(context.Background(), "")
	if err != nil {
		t.Fatalf("expected no error for anonymous caller, got: %v", err)
	}
	if stories == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(stories) != 0 {
		t.Errorf("anonymous stories = %d, want 0", len(stories))
	}
}

func TestStoryService_PurgeExpired_CountsOnlyExpired(t *testing.T) {
	alice := testUser(1, "sub-1", "alice")
	repo := newFakeStoryRepository()
	now := time.Unix(1700000000, 0)
	svc := newStoryServiceAt(repo, alice, &now)

	if _, err := svc.Create(context.Background(), "sub-1", model.CreateStoryRequest{
		ImageURL: "https://cdn.example.com/stories/a.jpg", StorageKey: "stories/a.jpg",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Second owner's story created 12h later, still live at purge time.
	repo.byOwner[2] = &model.Story{
		ID: 99, UserID: 2,
		ImageURL:  "https://cdn.example.com/stories/b.jpg",
		ExpiresAt: now.Add(model.StoryTTL + 12*time.Hour),
	}

	now = now.Add(model.StoryTTL + time.Minute)
	purged, err := svc.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	if _, ok := repo.byOwner[2]; !ok {
		t.Error("live story should survive the purge")
	}
}

func TestStoryService_Delete_Idempotent(t *testing.T) {
	user := testUser(1, "sub-1", "alice")
	repo := newFakeStoryRepository()
	now := time.Unix(1700000000, 0)
	svc := newStoryServiceAt(repo, user, &now)

	if _, err := svc.Create(context.Background(), "sub-1", model.CreateStoryRequest{
		ImageURL: "https://cdn.example.com/stories/a.jpg", StorageKey: "stories/a.jpg",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), "sub-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	// Deleting again with nothing left still succeeds.
	if err := svc.Delete(context.Background(), "sub-1"); err != nil {
		t.Fatalf("second delete should be a no-op, got: %v", err)
	}
}

func TestStoryService_Create_RequiresAuth(t *testing.T) {
	repo := newFakeStoryRepository()
	now := time.Unix(1700000000, 0)
	svc := newStoryServiceAt(repo, nil, &now)

	_, err := svc.Create(context.Background(), "", model.CreateStoryRequest{
		ImageURL: "https://cdn.example.com/stories/a.jpg", StorageKey: "stories/a.jpg",
	})
	if !errors.Is(err, model.ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}

	_, err = svc.Create(context.Background(), "sub-unknown", model.CreateStoryRequest{
		ImageURL: "https://cdn.example.com/stories/a.jpg", StorageKey: "stories/a.jpg",
	})
	if !errors.Is(err, model.ErrUserNotProvisioned) {
		t.Errorf("err = %v, want ErrUserNotProvisioned", err)
	}
}

func TestStoryService_Create_RequiresImage(t *testing.T) {
	user := testUser(1, "sub-1", "alice")
	repo := newFakeStoryRepository()
	now := time.Unix(1700000000, 0)
	svc := newStoryServiceAt(repo, user, &now)

	_, err := svc.Create(context.Background(), "sub-1", model.CreateStoryRequest{})
	if !errors.Is(err, model.ErrNoImage) {
		t.Errorf("err = %v, want ErrNoImage", err)
	}
}
