package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
	"github.com/inkframe/cms-api/internal/metrics"
)

// DefaultMaxUploadBytes is the upload size limit when none is configured.
const DefaultMaxUploadBytes = 10 << 20

// UploadService relays media files to object storage.
type UploadService struct {
	storage  ports.ObjectStorage
	maxBytes int64
	log      zerolog.Logger
}

func NewUploadService(storage ports.ObjectStorage, maxBytes int64, log zerolog.Logger) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadService{storage: storage, maxBytes: maxBytes, log: log}
}

// MaxBytes is the largest accepted payload.
func (s *UploadService) MaxBytes() int64 { return s.maxBytes }

// Upload stores an image or video and returns a block ready to be embedded in
// a content document. The block value is the storage key.
func (s *UploadService) Upload(ctx context.Context, in ports.UploadInput) (*domain.Block, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: file is required", domain.ErrValidation)
	}
	if int64(len(in.Data)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	blockType, ok := blockTypeForMime(in.MimeType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, in.MimeType)
	}

	obj, err := s.storage.Put(ctx, in.Data, in.Filename, in.MimeType)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	metrics.UploadsTotal.WithLabelValues(string(blockType)).Inc()
	s.log.Info().Str("key", obj.Key).Str("mime_type", in.MimeType).Int("size", len(in.Data)).Msg("file uploaded")

	return &domain.Block{
		Type:  blockType,
		Value: obj.Key,
		Metadata: map[string]any{
			"originalName": in.Filename,
			"mimeType":     in.MimeType,
			"size":         len(in.Data),
			"url":          obj.URL,
		},
	}, nil
}

func blockTypeForMime(mime string) (domain.BlockType, bool) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	switch {
	case strings.HasPrefix(mime, "image/"):
		return domain.BlockImage, true
	case strings.HasPrefix(mime, "video/"):
		return domain.BlockVideo, true
	}
	return "", false
}
