package ports

import (
	"context"

	"github.com/inkframe/cms-api/internal/core/domain"
)

// ContentListFilter carries the query parameters for listing contents.
type ContentListFilter struct {
	Search string // optional: case-insensitive substring of title or description
	Page   int    // 1-based
	Limit  int
}

// NewContent is the record persisted by ContentRepository.Create.
type NewContent struct {
	Title       string
	Description string
	Slug        string
	Blocks      []domain.Block
	CreatedBy   string
}

// ContentUpdate lists the fields to change on a content document. Nil fields
// are left untouched; a non-nil Blocks replaces the whole list.
type ContentUpdate struct {
	Title       *string
	Description *string
	Slug        *string
	Blocks      *[]domain.Block
	UpdatedBy   string
}

// ContentRepository persists content documents. Every read resolves the
// createdBy and updatedBy references to UserRef values.
type ContentRepository interface {
	Create(ctx context.Context, c NewContent) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Content, error)
	List(ctx context.Context, filter ContentListFilter) ([]*domain.Content, int64, error)
	ListByCreator(ctx context.Context, userID string) ([]*domain.Content, error)
	Update(ctx context.Context, id string, update ContentUpdate) (*domain.Content, error)
	Delete(ctx context.Context, id string) error
}
