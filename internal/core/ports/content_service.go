package ports

import (
	"context"

	"github.com/inkframe/cms-api/internal/core/domain"
)

// CreateContentInput is the DTO passed from the transport layer to ContentService.
type CreateContentInput struct {
	Title       string
	Description string
	Blocks      []domain.Block
}

// UpdateContentInput is a partial update; nil fields are left unchanged.
type UpdateContentInput struct {
	Title       *string
	Description *string
	Blocks      *[]domain.Block
}

// ListContentsResult is one page of contents.
type ListContentsResult struct {
	Items      []*domain.Content
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type ContentService interface {
	Create(ctx context.Context, in CreateContentInput, creatorID string) (*domain.Content, error)
	List(ctx context.Context, page, limit int, search string) (*ListContentsResult, error)
	Get(ctx context.Context, id string) (*domain.Content, error)
	Update(ctx context.Context, id string, in UpdateContentInput, updaterID string) (*domain.Content, error)
	Remove(ctx context.Context, id string) (*domain.Content, error)
	ListByCreator(ctx context.Context, userID string) ([]*domain.Content, error)
}
