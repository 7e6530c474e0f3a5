// Package optimistic holds a small prediction cache for interaction toggles.
// A caller records the state it expects a toggle to land in, renders from
// that prediction, and later confirms or rolls back when the authoritative
// result arrives. Predictions are keyed by (post, kind) so a like and a
// bookmark on the same post never collide.
package optimistic

import (
	"sync"

	"pixelgram/internal/model"
)

type key struct {
	PostID int64
	Kind   model.InteractionKind
}

// Prediction is a locally assumed toggle outcome awaiting confirmation.
type Prediction struct {
	Active bool
	Count  int
}

// Cache tracks in-flight toggle predictions. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	pending map[key]Prediction
}

func NewCache() *Cache {
	return &Cache{pending: make(map[key]Prediction)}
}

// Predict records the expected post-toggle state, derived by flipping the
// current state and adjusting the count by one.
func (c *Cache) Predict(postID int64, kind model.InteractionKind, currentActive bool, currentCount int) Prediction {
	p := Prediction{Active: !currentActive}
	if p.Active {
		p.Count = currentCount + 1
	} else {
		p.Count = currentCount - 1
		if p.Count < 0 {
			p.Count = 0
		}
	}

	c.mu.Lock()
	c.pending[key{PostID: postID, Kind: kind}] = p
	c.mu.Unlock()
	return p
}

// Confirm replaces the prediction with the authoritative result and clears
// the pending entry. The server result wins even when it disagrees with the
// prediction.
func (c *Cache) Confirm(postID int64, kind model.InteractionKind, result model.ToggleResult) {
	c.mu.Lock()
	delete(c.pending, key{PostID: postID, Kind: kind})
	c.mu.Unlock()
}

// Rollback discards the prediction after a failed toggle so renders fall
// back to the last known authoritative state.
func (c *Cache) Rollback(postID int64, kind model.InteractionKind) {
	c.mu.Lock()
	delete(c.pending, key{PostID: postID, Kind: kind})
	c.mu.Unlock()
}

// State returns the predicted state when a prediction is pending, otherwise
// the supplied authoritative state.
func (c *Cache) State(postID int64, kind model.InteractionKind, active bool, count int) (bool, int) {
	c.mu.Lock()
	p, ok := c.pending[key{PostID: postID, Kind: kind}]
	c.mu.Unlock()

	if !ok {
		return active, count
	}
	return p.Active, p.Count
}

// Pending reports whether a toggle is awaiting confirmation.
func (c *Cache) Pending(postID int64, kind model.InteractionKind) bool {
	c.mu.Lock()
	_, ok := c.pending[key{PostID: postID, Kind: kind}]
	c.mu.Unlock()
	return ok
}
