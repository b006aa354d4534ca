package ports

import (
	"context"

	"github.com/inkframe/cms-api/internal/core/domain"
)

// TokenService mints and verifies session tokens.
type TokenService interface {
	Issue(claims domain.Claims) (string, error)
	Verify(token string) (*domain.Claims, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	User        *domain.User
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}
