package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
)

func TestSeed_CreatesMissingUsersOnce(t *testing.T) {
	repo := newStubUserRepo()
	users := newUserSvc(repo)
	seeds := DefaultSeedUsers("")

	n, err := Seed(context.Background(), repo, users, seeds, zerolog.Nop())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 users created, got %d", n)
	}

	n, err = Seed(context.Background(), repo, users, seeds, zerolog.Nop())
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected reseed to be a no-op, created %d", n)
	}

	svc, _ := newAuthSvc(repo)
	res, err := svc.Login(context.Background(), "admin@gmail.com", DefaultSeedPassword)
	if err != nil {
		t.Fatalf("login as seeded admin: %v", err)
	}
	if res.User.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", res.User.Role)
	}
}

func TestSeed_AdminTokenCarriesAdminRole(t *testing.T) {
	repo := newStubUserRepo()
	seeds := []SeedUser{{Name: "Admin", Username: "admin", Email: "admin@x.com", Password: "Demo@123", Role: domain.RoleAdmin}}

	if _, err := Seed(context.Background(), repo, newUserSvc(repo), seeds, zerolog.Nop()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc, tokens := newAuthSvc(repo)
	res, err := svc.Login(context.Background(), "admin@x.com", "Demo@123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := tokens.Verify(res.AccessToken)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.Role != domain.RoleAdmin || claims.UserID != res.User.ID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}
