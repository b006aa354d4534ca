package ports

import (
	"context"

	"github.com/inkframe/cms-api/internal/core/domain"
)

// ObjectStorage is an S3-compatible blob store. Put and Delete may fail
// independently of any database write.
type ObjectStorage interface {
	Put(ctx context.Context, data []byte, filename, mimeType string) (*domain.StoredObject, error)
	Delete(ctx context.Context, key string) error
}

// UploadInput describes a file received by the upload endpoint.
type UploadInput struct {
	Filename string
	MimeType string
	Data     []byte
}

// UploadService relays files to object storage and returns an embeddable block.
type UploadService interface {
	Upload(ctx context.Context, in UploadInput) (*domain.Block, error)
}
