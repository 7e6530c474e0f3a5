package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pixelgram/internal/httputil"
	"pixelgram/internal/model"
	"pixelgram/internal/service"
	"pixelgram/internal/transport/http/middleware"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me handles GET /me
// Returns the caller's own profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	user, err := h.userService.Me(r.Context(), subject)
	if err != nil {
		writeServiceError(w, err, "Get me", "Failed to get profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// GetProfile handles GET /users/{username}
// Open to anonymous callers.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.userService.GetProfile(r.Context(), username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		writeServiceError(w, err, "Get profile", "Failed to get profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Search handles GET /users/search?q=...
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	users, err := h.userService.Search(r.Context(), query, limit)
	if err != nil {
		writeServiceError(w, err, "Search users", "Failed to search users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

// UpdateProfile handles PATCH /me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), subject, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidUsername):
			httputil.WriteValidationFailed(w, "Invalid username")
		case errors.Is(err, model.ErrBioTooLong):
			httputil.WriteValidationFailed(w, "Bio too long (max 150 characters)")
		case errors.Is(err, model.ErrUsernameExists):
			httputil.WriteConflict(w, "Username is already taken")
		default:
			writeServiceError(w, err, "Update profile", "Failed to update profile")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
