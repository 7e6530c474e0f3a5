package worker

import (
	"context"
	"fmt"
	"log"

	"pixelgram/internal/cache"
	"pixelgram/internal/queue"
)

// Handler applies content events to the public timeline cache.
type Handler struct {
	feedCache cache.FeedCache
}

// NewHandler creates a new event handler.
func NewHandler(feedCache cache.FeedCache) *Handler {
	return &Handler{feedCache: feedCache}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ContentEvent) error {
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s err=%v", event.Type, err)
		return err
	}
	return nil
}

// handlePostCreated inserts the new post into the timeline cache.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.ContentEvent) error {
	log.Printf("[Worker] PostCreated: post=%d author=%d", event.PostID, event.AuthorID)

	if err := h.feedCache.AddPost(ctx, event.PostID, event.Timestamp); err != nil {
		return fmt.Errorf("add post to timeline: %w", err)
	}
	return nil
}

// handlePostDeleted removes the post from the timeline cache.
func (h *Handler) handlePostDeleted(ctx context.Context, event queue.ContentEvent) error {
	log.Printf("[Worker] PostDeleted: post=%d author=%d", event.PostID, event.AuthorID)

	if err := h.feedCache.RemovePost(ctx, event.PostID); err != nil {
		return fmt.Errorf("remove post from timeline: %w", err)
	}
	return nil
}
