package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the content stream
const (
	EventPostCreated = "post_created"
	EventPostDeleted = "post_deleted"
)

// Stream names
const (
	StreamContent = "stream:content"
)

// Consumer group name for content workers
const (
	ConsumerGroupContent = "content_workers"
)

// ContentEvent represents an event published to the content stream.
// Workers apply these to the public timeline cache.
type ContentEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when the event occurred

	PostID   int64 `json:"post_id,omitempty"`
	AuthorID int64 `json:"author_id,omitempty"`
}

// NewPostCreatedEvent creates an event for when a user creates a post.
// The worker inserts the post into the timeline cache.
func NewPostCreatedEvent(postID, authorID int64) ContentEvent {
	return ContentEvent{
		Type:      EventPostCreated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewPostDeletedEvent creates an event for when a user deletes a post.
// The worker removes the post from the timeline cache.
func NewPostDeletedEvent(postID, authorID int64) ContentEvent {
	return ContentEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Streams store field-value pairs, so the payload rides in a JSON "data" field.
func (e ContentEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseContentEvent parses a ContentEvent from Redis stream message values.
func ParseContentEvent(values map[string]interface{}) (ContentEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ContentEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ContentEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ContentEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
