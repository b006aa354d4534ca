package ports

import (
	"context"

	"github.com/inkframe/cms-api/internal/core/domain"
)

// UserListFilter carries the query parameters for listing users.
type UserListFilter struct {
	Search string // optional: case-insensitive match on name, username or email
	Page   int    // 1-based
	Limit  int
}

// UserUpdate lists the fields to change on a user. Nil fields are left as is.
type UserUpdate struct {
	Name         *string
	Username     *string
	Email        *string
	PasswordHash *string
	Role         *string
	UpdatedBy    string
}

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail returns the user including its password hash.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, filter UserListFilter) ([]*domain.User, int64, error)
	Update(ctx context.Context, id string, update UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
