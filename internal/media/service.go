package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/logger"
)

// Upload kinds with their accepted content types.
var (
	imageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	}
	videoTypes = map[string]string{
		"video/mp4":       ".mp4",
		"video/webm":      ".webm",
		"video/quicktime": ".mov",
	}
)

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Service validates uploads and stores them through a backend.
type Service struct {
	storage  Storage
	maxBytes int64
	log      *logger.Logger
}

// NewService wires a media service. maxUploadMB caps single uploads.
func NewService(storage Storage, maxUploadMB int64, log *logger.Logger) *Service {
	return &Service{
		storage:  storage,
		maxBytes: maxUploadMB * 1024 * 1024,
		log:      log.WithComponent("media"),
	}
}

// MaxBytes returns the upload size cap in bytes.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// UploadImage stores an image for the user and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, userID, contentType string, r io.Reader, size int64) (*UploadResult, error) {
	return s.upload(ctx, userID, "images", contentType, r, size, imageTypes)
}

// UploadVideo stores a video for the user and returns its public URL.
func (s *Service) UploadVideo(ctx context.Context, userID, contentType string, r io.Reader, size int64) (*UploadResult, error) {
	return s.upload(ctx, userID, "videos", contentType, r, size, videoTypes)
}

func (s *Service) upload(ctx context.Context, userID, prefix, contentType string, r io.Reader, size int64, accepted map[string]string) (*UploadResult, error) {
	if size > s.maxBytes {
		return nil, apperr.InvalidInput("file", fmt.Sprintf("file exceeds the %d MB limit", s.maxBytes/(1024*1024)))
	}

	ext, ok := accepted[normalizeContentType(contentType)]
	if !ok {
		return nil, apperr.InvalidInput("file", "unsupported content type: "+contentType)
	}

	key := fmt.Sprintf("%s/%s/%s%s", prefix, userID, uuid.NewString(), ext)
	if err := s.storage.Upload(ctx, key, io.LimitReader(r, s.maxBytes), contentType); err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.Info("Media uploaded", map[string]interface{}{
		"key":  key,
		"user": userID,
		"size": size,
	})
	return &UploadResult{Key: key, URL: s.storage.URL(key)}, nil
}

// Delete removes an uploaded object.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

func normalizeContentType(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
