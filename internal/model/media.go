package model

import "errors"

// UploadResult is returned after a successful media upload. The pair feeds
// the image_url/storage_key fields on post and story creation.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

const (
	MaxImageSizeBytes = 10 * 1024 * 1024

	AvatarFolder = "avatars"
	AvatarWidth  = 200
	AvatarHeight = 200
	AvatarExt    = ".jpg"

	PostImageMaxDim = 1080

	ContentTypeJPEG = "image/jpeg"

	AvatarCacheControl = "public, max-age=31536000"
)

// IsAllowedImageType reports whether the content type is accepted for upload.
func IsAllowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}

var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
)
