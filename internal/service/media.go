package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"pixelgram/internal/config"
	"pixelgram/internal/model"
)

// MediaService handles image uploads to Cloudflare R2. Uploads are normalized
// server-side; clients never choose storage keys.
type MediaService struct {
	s3Client  *s3.Client
	bucket    string
	publicURL string
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MediaService{
		s3Client:  s3Client,
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

// UploadAvatar enforces size/type, normalizes to 200x200 JPEG, and uploads to R2.
func (s *MediaService) UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	data, _, err := readAndValidateImage(file, header, model.MaxImageSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := fillToJPEG(data, model.AvatarWidth, model.AvatarHeight, 85)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", model.AvatarFolder, uuid.NewString(), model.AvatarExt)
	if err := s.putObject(ctx, key, jpegBytes, model.ContentTypeJPEG, model.AvatarCacheControl); err != nil {
		return nil, err
	}

	return &model.UploadResult{URL: s.publicURL + "/" + key, Key: key}, nil
}

// UploadPostImage validates and downscales a post image, then uploads it.
func (s *MediaService) UploadPostImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	return s.uploadContentImage(ctx, file, header, model.PostMediaFolder)
}

// UploadStoryImage validates and downscales a story image, then uploads it.
// Stories share the post pipeline; only the storage prefix differs.
func (s *MediaService) UploadStoryImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	return s.uploadContentImage(ctx, file, header, model.StoryMediaFolder)
}

func (s *MediaService) uploadContentImage(ctx context.Context, file multipart.File, header *multipart.FileHeader, folder string) (*model.UploadResult, error) {
	data, _, err := readAndValidateImage(file, header, model.MaxImageSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := fitToJPEG(data, model.PostImageMaxDim, 85)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s.jpg", folder, uuid.NewString())
	if err := s.putObject(ctx, key, jpegBytes, model.ContentTypeJPEG, model.AvatarCacheControl); err != nil {
		return nil, err
	}

	return &model.UploadResult{URL: s.publicURL + "/" + key, Key: key}, nil
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(file multipart.File, header *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if header.Size > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	limitedReader := io.LimitReader(file, maxSize+1)
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !model.IsAllowedImageType(contentType) {
		return nil, "", model.ErrInvalidImageType
	}

	return data, contentType, nil
}

// fillToJPEG center-crops to an exact size and encodes as JPEG.
func fillToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fitToJPEG downscales so neither dimension exceeds maxDim, preserving aspect
// ratio, and encodes as JPEG. Images already within bounds are re-encoded
// without resizing.
func fitToJPEG(data []byte, maxDim, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// putObject uploads bytes to R2 with metadata.
func (s *MediaService) putObject(ctx context.Context, key string, body []byte, contentType, cacheControl string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}

// DeleteObject removes an object by key. Missing keys are a no-op.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
