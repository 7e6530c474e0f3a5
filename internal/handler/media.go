package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"pixelgram/internal/httputil"
	"pixelgram/internal/model"
	"pixelgram/internal/service"
)

type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadAvatar handles POST /media/avatar
// Accepts a multipart "image" field, normalizes it and stores it in R2.
func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.mediaService.UploadAvatar)
}

// UploadPostImage handles POST /media/posts
// The returned url/key pair feeds post creation.
func (h *MediaHandler) UploadPostImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.mediaService.UploadPostImage)
}

// UploadStoryImage handles POST /media/stories
func (h *MediaHandler) UploadStoryImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.mediaService.UploadStoryImage)
}

func (h *MediaHandler) upload(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)) {
	r.Body = http.MaxBytesReader(w, r.Body, model.MaxImageSizeBytes+1<<20)

	if err := r.ParseMultipartForm(model.MaxImageSizeBytes); err != nil {
		httputil.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteBadRequest(w, "image file is required")
		return
	}
	defer file.Close()

	result, err := fn(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteValidationFailed(w, "Image exceeds 10MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteValidationFailed(w, "Unsupported image type. Allowed: jpeg, png, webp")
		default:
			writeServiceError(w, err, "Upload media", "Failed to upload image")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
