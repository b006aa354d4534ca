package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
)

// DefaultSeedPassword is the password given to the default accounts.
const DefaultSeedPassword = "Demo@123"

// SeedUser is an account created by Seed when missing.
type SeedUser struct {
	Name     string
	Username string
	Email    string
	Password string
	Role     string
}

// DefaultSeedUsers returns one admin, one editor and one client account.
func DefaultSeedUsers(password string) []SeedUser {
	if password == "" {
		password = DefaultSeedPassword
	}
	return []SeedUser{
		{Name: "Admin User", Username: "admin", Email: "admin@gmail.com", Password: password, Role: domain.RoleAdmin},
		{Name: "Editor User 1", Username: "user1", Email: "user1@gmail.com", Password: password, Role: domain.RoleEditor},
		{Name: "Client User 2", Username: "user2", Email: "user2@gmail.com", Password: password, Role: domain.RoleClient},
	}
}

// Seed creates every user in users whose email is not registered yet and
// returns how many were created. Existing accounts are left untouched.
func Seed(ctx context.Context, repo ports.UserRepository, users *UserService, seeds []SeedUser, log zerolog.Logger) (int, error) {
	created := 0
	for _, su := range seeds {
		_, err := repo.FindByEmail(ctx, normalizeIdent(su.Email))
		if err == nil {
			log.Info().Str("email", su.Email).Msg("seed user already exists, skipping")
			continue
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return created, fmt.Errorf("seed %s: %w", su.Email, err)
		}

		if _, err := users.CreateUser(ctx, ports.CreateUserInput{
			Name:     su.Name,
			Username: su.Username,
			Email:    su.Email,
			Password: su.Password,
			Role:     su.Role,
		}); err != nil {
			return created, fmt.Errorf("seed %s: %w", su.Email, err)
		}
		created++
		log.Info().Str("email", su.Email).Str("role", su.Role).Msg("seed user created")
	}
	return created, nil
}
