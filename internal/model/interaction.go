package model

// InteractionKind names one of the two existence-based toggles on a post.
// The kinds are structurally identical but never share storage or counters.
type InteractionKind string

const (
	InteractionLike     InteractionKind = "like"
	InteractionBookmark InteractionKind = "bookmark"
)

// ToggleResult is the authoritative outcome of a toggle request. Active
// equals the post-call existence of the (user, post) row; Count is the
// post's denormalized counter for this kind after the flip.
type ToggleResult struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}
