package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
)

const defaultBcryptCost = 12

// UserService implements account management on top of the credential store.
type UserService struct {
	repo ports.UserRepository
	cost int
	log  zerolog.Logger
}

func NewUserService(repo ports.UserRepository, bcryptCost int, log zerolog.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = defaultBcryptCost
	}
	return &UserService{repo: repo, cost: bcryptCost, log: log}
}

func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	email := normalizeIdent(in.Email)
	username := normalizeIdent(in.Username)
	name := strings.TrimSpace(in.Name)
	if name == "" || username == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, username, email and password are required", domain.ErrValidation)
	}
	if !domain.ValidRole(in.Role) {
		return nil, fmt.Errorf("%w: role must be one of: admin editor client", domain.ErrValidation)
	}

	if err := s.ensureFree(ctx, "", email, username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Str("created_by", in.CreatedBy).Msg("user created")
	return created, nil
}

func (s *UserService) ListUsers(ctx context.Context, page, limit int, search string) (*ports.ListUsersResult, error) {
	page, limit = normalizePage(page, limit)

	users, total, err := s.repo.List(ctx, ports.UserListFilter{
		Search: strings.TrimSpace(search),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &ports.ListUsersResult{
		Items:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) UpdateUser(ctx context.Context, actor domain.Claims, id string, in ports.UpdateUserInput) (*domain.User, error) {
	if in.Role != nil {
		if actor.Role != domain.RoleAdmin {
			return nil, fmt.Errorf("%w: only admins can change user roles", domain.ErrForbidden)
		}
		if !domain.ValidRole(*in.Role) {
			return nil, fmt.Errorf("%w: role must be one of: admin editor client", domain.ErrValidation)
		}
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := ports.UserUpdate{Role: in.Role, UpdatedBy: actor.UserID}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		update.Name = &name
	}

	var email, username string
	if in.Email != nil {
		if e := normalizeIdent(*in.Email); e != existing.Email {
			email = e
			update.Email = &e
		}
	}
	if in.Username != nil {
		if u := normalizeIdent(*in.Username); u != existing.Username {
			username = u
			update.Username = &u
		}
	}
	if err := s.ensureFree(ctx, existing.ID, email, username); err != nil {
		return nil, err
	}

	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.cost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		h := string(hash)
		update.PasswordHash = &h
	}

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id).Str("updated_by", actor.UserID).Msg("user updated")
	return updated, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" {
		return domain.ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		s.log.Warn().Str("user_id", userID).Msg("change password: current password mismatch")
		return domain.ErrWrongPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(newPassword)) == nil {
		return domain.ErrSamePassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	h := string(hash)
	if _, err := s.repo.Update(ctx, userID, ports.UserUpdate{PasswordHash: &h, UpdatedBy: userID}); err != nil {
		return err
	}

	s.log.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor domain.Claims, id string) error {
	if actor.UserID == id {
		return domain.ErrSelfDelete
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Str("deleted_by", actor.UserID).Msg("user deleted")
	return nil
}

// ensureFree reports a conflict when email or username (if non-empty) belong
// to a user other than selfID.
func (s *UserService) ensureFree(ctx context.Context, selfID, email, username string) error {
	if email != "" {
		u, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil && u.ID != selfID:
			return domain.ErrEmailTaken
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return fmt.Errorf("check email: %w", err)
		}
	}
	if username != "" {
		u, err := s.repo.FindByUsername(ctx, username)
		switch {
		case err == nil && u.ID != selfID:
			return domain.ErrUsernameTaken
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return fmt.Errorf("check username: %w", err)
		}
	}
	return nil
}

func normalizeIdent(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
