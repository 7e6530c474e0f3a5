package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"pixelgram/internal/httputil"
	"pixelgram/internal/model"
	"pixelgram/internal/service"
	"pixelgram/internal/transport/http/middleware"
)

type StoryHandler struct {
	storyService *service.StoryService
}

func NewStoryHandler(storyService *service.StoryService) *StoryHandler {
	return &StoryHandler{storyService: storyService}
}

// Create handles POST /stories
// Replaces the caller's current story with a new 24h one.
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	var req model.CreateStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	story, err := h.storyService.Create(r.Context(), subject, req)
	if err != nil {
		if errors.Is(err, model.ErrNoImage) {
			httputil.WriteValidationFailed(w, "An image is required")
			return
		}
		writeServiceError(w, err, "Create story", "Failed to create story")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, story)
}

// List handles GET /stories
// Returns all currently active stories. Anonymous callers get an empty list.
func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	stories, err := h.storyService.ListActive(r.Context(), subject)
	if err != nil {
		writeServiceError(w, err, "List stories", "Failed to list stories")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stories": stories,
	})
}

// GetOwn handles GET /stories/me
// Returns the caller's active story, or null when there is none.
func (h *StoryHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	story, err := h.storyService.GetOwn(r.Context(), subject)
	if err != nil {
		writeServiceError(w, err, "Get own story", "Failed to get story")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"story": story,
	})
}

// Delete handles DELETE /stories/me
// Removes the caller's story. Succeeds even when no story exists.
func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	if err := h.storyService.Delete(r.Context(), subject); err != nil {
		writeServiceError(w, err, "Delete story", "Failed to delete story")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Story deleted",
	})
}
