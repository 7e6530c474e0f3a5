package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pixelgram/internal/httputil"
	"pixelgram/internal/model"
	"pixelgram/internal/service"
	"pixelgram/internal/transport/http/middleware"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// GetFeed handles GET /feed
// Returns a page of the public timeline. Open to anonymous callers, who get
// default annotations.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	cursor, limit, err := parsePageParams(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid pagination parameters")
		return
	}

	resp, err := h.feedService.GetFeed(r.Context(), subject, cursor, limit)
	if err != nil {
		writeServiceError(w, err, "Get feed", "Failed to get feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// GetUserPosts handles GET /users/{username}/posts
// Returns a page of one user's posts for their profile.
func (h *FeedHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())
	username := chi.URLParam(r, "username")

	cursor, limit, err := parsePageParams(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid pagination parameters")
		return
	}

	resp, err := h.feedService.GetUserPosts(r.Context(), subject, username, cursor, limit)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		writeServiceError(w, err, "Get user posts", "Failed to get user posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// GetBookmarked handles GET /me/bookmarks
// Returns the caller's bookmarked posts.
func (h *FeedHandler) GetBookmarked(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	resp, err := h.feedService.GetBookmarked(r.Context(), subject)
	if err != nil {
		writeServiceError(w, err, "Get bookmarks", "Failed to get bookmarks")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
