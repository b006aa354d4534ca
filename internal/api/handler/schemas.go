package handler

import (
	"github.com/inkframe/cms-api/internal/core/domain"
)

// errorResponse mirrors the envelope rendered by the central error handler.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- auth ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	User        loginUser `json:"user"`
}

// --- users ---

type createUserRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=50"`
	Username string `json:"username" validate:"required,min=3,max=20,username"`
	Email    string `json:"email"    validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,password"`
	Role     string `json:"role"     validate:"required,oneof=admin editor client"`
}

type updateUserRequest struct {
	Name     *string `json:"name"     validate:"omitempty,min=2,max=50"`
	Username *string `json:"username" validate:"omitempty,min=3,max=20,username"`
	Email    *string `json:"email"    validate:"omitempty,email,max=100"`
	Password *string `json:"password" validate:"omitempty,min=8,password"`
	Role     *string `json:"role"     validate:"omitempty,oneof=admin editor client"`
}

type updateProfileRequest struct {
	Name     *string `json:"name"     validate:"omitempty,min=2,max=50"`
	Username *string `json:"username" validate:"omitempty,min=3,max=20,username"`
	Email    *string `json:"email"    validate:"omitempty,email,max=100"`
	Password *string `json:"password" validate:"omitempty,min=8,password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8,password"`
}

type deleteUserResponse struct {
	Message       string `json:"message"`
	DeletedUserID string `json:"deletedUserId"`
}

type usersPage struct {
	Data       []*domain.User `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

// --- contents ---

type blockRequest struct {
	Type     string         `json:"type"     validate:"required,oneof=text image video"`
	Value    string         `json:"value"    validate:"required"`
	Caption  string         `json:"caption"`
	Metadata map[string]any `json:"metadata"`
}

type createContentRequest struct {
	Title       string         `json:"title"       validate:"required"`
	Description string         `json:"description"`
	Blocks      []blockRequest `json:"blocks"      validate:"required,min=1,dive"`
}

type updateContentRequest struct {
	Title       *string         `json:"title"       validate:"omitempty,min=1"`
	Description *string         `json:"description"`
	Blocks      *[]blockRequest `json:"blocks"      validate:"omitempty,min=1,dive"`
}

type contentsPage struct {
	Data       []*domain.Content `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

func toBlocks(in []blockRequest) []domain.Block {
	out := make([]domain.Block, len(in))
	for i, b := range in {
		out[i] = domain.Block{
			Type:     domain.BlockType(b.Type),
			Value:    b.Value,
			Caption:  b.Caption,
			Metadata: b.Metadata,
		}
	}
	return out
}
