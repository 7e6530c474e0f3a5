package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pixelgram/internal/httputil"
	"pixelgram/internal/model"
	"pixelgram/internal/service"
	"pixelgram/internal/transport/http/middleware"
)

type PostHandler struct {
	postService        *service.PostService
	interactionService *service.InteractionService
}

func NewPostHandler(postService *service.PostService, interactionService *service.InteractionService) *PostHandler {
	return &PostHandler{
		postService:        postService,
		interactionService: interactionService,
	}
}

// Create handles POST /posts
// Creates a new post for the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), subject, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoImage):
			httputil.WriteValidationFailed(w, "An image is required")
		case errors.Is(err, model.ErrCaptionTooLong):
			httputil.WriteValidationFailed(w, "Caption too long (max 2200 characters)")
		default:
			writeServiceError(w, err, "Create post", "Failed to create post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// GetByID handles GET /posts/{id}
// Returns a single post with the viewer's like/bookmark state.
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	subject, _ := middleware.GetSubjectFromContext(r.Context())

	post, err := h.postService.Get(r.Context(), subject, postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		writeServiceError(w, err, "Get post", "Failed to get post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id}
// Only the owner can delete.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	postID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	err = h.postService.Delete(r.Context(), subject, postID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You can only delete your own posts")
		default:
			writeServiceError(w, err, "Delete post", "Failed to delete post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post deleted successfully",
	})
}

// ToggleLike handles POST /posts/{id}/like
// Flips the caller's like and returns the post-call state and count.
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.interactionService.ToggleLike, "like")
}

// ToggleBookmark handles POST /posts/{id}/bookmark
func (h *PostHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.interactionService.ToggleBookmark, "bookmark")
}

func (h *PostHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, subject string, postID int64) (model.ToggleResult, error), name string) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	postID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	result, err := fn(r.Context(), subject, postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		writeServiceError(w, err, "Toggle "+name, "Failed to toggle "+name)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// parseIDParam extracts a numeric URL parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// writeServiceError maps the shared identity failures and falls through to a
// logged 500 for everything else.
func writeServiceError(w http.ResponseWriter, err error, op, message string) {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		httputil.WriteUnauthenticated(w, "Authentication required")
	case errors.Is(err, model.ErrUserNotProvisioned):
		httputil.WriteNotProvisioned(w, "Account not provisioned yet")
	default:
		log.Printf("[ERROR] %s handler: %v", op, err)
		httputil.WriteInternalError(w, message)
	}
}
