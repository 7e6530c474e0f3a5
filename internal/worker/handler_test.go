package worker

import (
	"context"
	"errors"
	"testing"

	"pixelgram/internal/cache"
	"pixelgram/internal/queue"
)

type fakeFeedCache struct {
	added   []int64
	removed []int64

	addErr error
}

func (f *fakeFeedCache) AddPost(ctx context.Context, postID int64, timestamp int64) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, postID)
	return nil
}

func (f *fakeFeedCache) RemovePost(ctx context.Context, postID int64) error {
	f.removed = append(f.removed, postID)
	return nil
}

func (f *fakeFeedCache) GetPage(ctx context.Context, cursorScore *float64, limit int) ([]int64, []float64, error) {
	return nil, nil, nil
}

func (f *fakeFeedCache) Warm(ctx context.Context, posts []cache.PostScore) error {
	return nil
}

func (f *fakeFeedCache) Exists(ctx context.Context) (bool, error) {
	return true, nil
}

func TestHandler_PostCreated_AddsToTimeline(t *testing.T) {
	fc := &fakeFeedCache{}
	h := NewHandler(fc)

	event := queue.NewPostCreatedEvent(42, 7)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(fc.added) != 1 || fc.added[0] != 42 {
		t.Errorf("added = %v, want [42]", fc.added)
	}
	if len(fc.removed) != 0 {
		t.Errorf("removed = %v, want none", fc.removed)
	}
}

func TestHandler_PostDeleted_RemovesFromTimeline(t *testing.T) {
	fc := &fakeFeedCache{}
	h := NewHandler(fc)

	event := queue.NewPostDeletedEvent(42, 7)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(fc.removed) != 1 || fc.removed[0] != 42 {
		t.Errorf("removed = %v, want [42]", fc.removed)
	}
}

func TestHandler_UnknownEventType(t *testing.T) {
	h := NewHandler(&fakeFeedCache{})

	err := h.HandleEvent(context.Background(), queue.ContentEvent{Type: "mystery"})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestHandler_PropagatesCacheError(t *testing.T) {
	fc := &fakeFeedCache{addErr: errors.New("redis down")}
	h := NewHandler(fc)

	err := h.HandleEvent(context.Background(), queue.NewPostCreatedEvent(42, 7))
	if err == nil {
		t.Fatal("expected error when cache write fails")
	}
}
