package ports

import (
	"context"

	"github.com/inkframe/cms-api/internal/core/domain"
)

// CreateUserInput carries the fields of a new account.
type CreateUserInput struct {
	Name      string
	Username  string
	Email     string
	Password  string
	Role      string
	CreatedBy string
}

// UpdateUserInput carries a partial update. Nil fields are not changed.
type UpdateUserInput struct {
	Name     *string
	Username *string
	Email    *string
	Password *string
	Role     *string
}

// ListUsersResult is one page of users.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	ListUsers(ctx context.Context, page, limit int, search string) (*ListUsersResult, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// UpdateUser applies in to user id on behalf of actor. Only admins may
	// change a role.
	UpdateUser(ctx context.Context, actor domain.Claims, id string, in UpdateUserInput) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	// DeleteUser removes user id. An actor may not delete itself.
	DeleteUser(ctx context.Context, actor domain.Claims, id string) error
}
