package handler

import (
	"errors"
	"strings"
	"testing"

	"github.com/inkframe/cms-api/internal/core/domain"
)

func TestValidator_Messages(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&createUserRequest{Name: "A", Username: "bad name", Email: "x", Password: "short", Role: "root"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	for _, want := range []string{
		"name must be at least 2 characters long",
		"username can only contain letters, numbers, and underscores",
		"email must be a valid email",
		"password must be at least 8 characters long",
		"role must be one of: admin editor client",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestStrongPassword(t *testing.T) {
	tests := map[string]bool{
		"Demo@123":   true,
		"Passw0rd!":  true,
		"password":   false,
		"PASSWORD1!": false,
		"Password1":  false,
		"Pass@word":  false,
	}
	for pw, want := range tests {
		if got := strongPassword(pw); got != want {
			t.Fatalf("strongPassword(%q) = %v, want %v", pw, got, want)
		}
	}
}
