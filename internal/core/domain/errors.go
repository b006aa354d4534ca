package domain

import "errors"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrForbidden        = errors.New("access forbidden")
	ErrInvalidID        = errors.New("invalid id format")
	ErrValidation       = errors.New("validation failed")
	ErrUnsupportedMedia = errors.New("unsupported file type")
	ErrFileTooLarge     = errors.New("file too large")
)
