package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pixelgram/internal/httputil"
	"pixelgram/internal/model"
	"pixelgram/internal/service"
	"pixelgram/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// Add handles POST /posts/{id}/comments
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	postID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req model.AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Add(r.Context(), subject, postID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmptyComment):
			httputil.WriteValidationFailed(w, "Comment cannot be empty")
		case errors.Is(err, model.ErrCommentTooLong):
			httputil.WriteValidationFailed(w, "Comment too long (max 1000 characters)")
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		default:
			writeServiceError(w, err, "Add comment", "Failed to add comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// List handles GET /posts/{id}/comments
// Open to anonymous callers.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	cursor, limit, err := parsePageParams(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid pagination parameters")
		return
	}

	resp, err := h.commentService.List(r.Context(), postID, cursor, limit)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		writeServiceError(w, err, "List comments", "Failed to list comments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /comments/{id}
// Only the comment author can delete.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	commentID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	err = h.commentService.Delete(r.Context(), subject, commentID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrNotCommentOwner):
			httputil.WriteForbidden(w, "You can only delete your own comments")
		default:
			writeServiceError(w, err, "Delete comment", "Failed to delete comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Comment deleted",
	})
}

// parsePageParams extracts the optional cursor and limit query parameters.
func parsePageParams(r *http.Request) (*string, int, error) {
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			return nil, 0, errors.New("invalid limit")
		}
		limit = parsed
	}

	return cursor, limit, nil
}
