package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/inkframe/cms-api/internal/api/middleware"
	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
)

type stubUserService struct {
	createFn   func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	listFn     func(ctx context.Context, page, limit int, search string) (*ports.ListUsersResult, error)
	getFn      func(ctx context.Context, id string) (*domain.User, error)
	updateFn   func(ctx context.Context, actor domain.Claims, id string, in ports.UpdateUserInput) (*domain.User, error)
	passwordFn func(ctx context.Context, userID, current, next string) error
	deleteFn   func(ctx context.Context, actor domain.Claims, id string) error
}

func (s *stubUserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) ListUsers(ctx context.Context, page, limit int, search string) (*ports.ListUsersResult, error) {
	return s.listFn(ctx, page, limit, search)
}

func (s *stubUserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) UpdateUser(ctx context.Context, actor domain.Claims, id string, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, actor, id, in)
}

func (s *stubUserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	return s.passwordFn(ctx, userID, current, next)
}

func (s *stubUserService) DeleteUser(ctx context.Context, actor domain.Claims, id string) error {
	return s.deleteFn(ctx, actor, id)
}

var adminActor = &domain.Claims{UserID: "admin-1", Username: "admin", Role: domain.RoleAdmin}

func authedContext(e *echo.Echo, req *http.Request, claims *domain.Claims) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetClaims(c, claims)
	return c, rec
}

func TestUserHandler_Create(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		createFn: func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
			if in.CreatedBy != adminActor.UserID || in.Role != domain.RoleEditor || in.Username != "new_editor" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u9", Name: in.Name, Username: in.Username, Email: in.Email, Role: in.Role, PasswordHash: "secret-hash"}, nil
		},
	}

	body := `{"name":"New Editor","username":"new_editor","email":"ne@example.com","password":"Passw0rd!","role":"editor"}`
	c, rec := authedContext(e, jsonRequest(http.MethodPost, "/users", body), adminActor)

	if err := NewUserHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["_id"] != "u9" {
		t.Fatalf("expected _id u9, got %v", resp["_id"])
	}
	if _, leaked := resp["passwordHash"]; leaked {
		t.Fatalf("password hash serialized")
	}
}

func TestUserHandler_Create_Validation(t *testing.T) {
	tests := map[string]string{
		"weak password": `{"name":"Ab","username":"abc","email":"a@b.co","password":"password","role":"client"}`,
		"bad username":  `{"name":"Ab","username":"a b","email":"a@b.co","password":"Passw0rd!","role":"client"}`,
		"unknown role":  `{"name":"Ab","username":"abc","email":"a@b.co","password":"Passw0rd!","role":"root"}`,
		"short name":    `{"name":"A","username":"abc","email":"a@b.co","password":"Passw0rd!","role":"client"}`,
		"invalid email": `{"name":"Ab","username":"abc","email":"nope","password":"Passw0rd!","role":"client"}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubUserService{
				createFn: func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
					t.Fatalf("should not be called")
					return nil, nil
				},
			}
			c, _ := authedContext(e, jsonRequest(http.MethodPost, "/users", body), adminActor)

			if err := NewUserHandler(stub).Create(c); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestUserHandler_List(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		listFn: func(ctx context.Context, page, limit int, search string) (*ports.ListUsersResult, error) {
			if page != 2 || limit != 5 || search != "ali" {
				t.Fatalf("unexpected query: %d %d %q", page, limit, search)
			}
			return &ports.ListUsersResult{Items: []*domain.User{{ID: "u1"}}, Total: 6, Page: 2, Limit: 5, TotalPages: 2}, nil
		},
	}

	c, rec := authedContext(e, httptest.NewRequest(http.MethodGet, "/users?page=2&limit=5&search=ali", nil), adminActor)

	if err := NewUserHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp usersPage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 6 || resp.TotalPages != 2 || len(resp.Data) != 1 {
		t.Fatalf("unexpected page: %+v", resp)
	}
}

func TestUserHandler_UpdateProfile_IgnoresRole(t *testing.T) {
	e := newTestEcho()
	self := &domain.Claims{UserID: "c1", Username: "cl", Role: domain.RoleClient}
	stub := &stubUserService{
		updateFn: func(ctx context.Context, actor domain.Claims, id string, in ports.UpdateUserInput) (*domain.User, error) {
			if id != "c1" || actor.UserID != "c1" {
				t.Fatalf("expected own record to be updated, got id=%s actor=%s", id, actor.UserID)
			}
			if in.Role != nil {
				t.Fatalf("profile update must not carry a role")
			}
			if in.Name == nil || *in.Name != "Renamed" {
				t.Fatalf("unexpected name: %v", in.Name)
			}
			return &domain.User{ID: id, Name: *in.Name, Role: domain.RoleClient}, nil
		},
	}

	c, rec := authedContext(e, jsonRequest(http.MethodPatch, "/users/me", `{"name":"Renamed","role":"admin"}`), self)

	if err := NewUserHandler(stub).UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_ChangePassword(t *testing.T) {
	e := newTestEcho()
	self := &domain.Claims{UserID: "c1", Username: "cl", Role: domain.RoleClient}
	stub := &stubUserService{
		passwordFn: func(ctx context.Context, userID, current, next string) error {
			if userID != "c1" || current != "Old@1234" || next != "New@1234" {
				t.Fatalf("unexpected args: %s %s %s", userID, current, next)
			}
			return nil
		},
	}

	c, rec := authedContext(e, jsonRequest(http.MethodPatch, "/users/me/change-password", `{"currentPassword":"Old@1234","newPassword":"New@1234"}`), self)

	if err := NewUserHandler(stub).ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp messageResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != "Password changed successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		deleteFn: func(ctx context.Context, actor domain.Claims, id string) error {
			if id == actor.UserID {
				return domain.ErrSelfDelete
			}
			return nil
		},
	}

	c, rec := authedContext(e, httptest.NewRequest(http.MethodDelete, "/users/u2", nil), adminActor)
	c.SetParamNames("id")
	c.SetParamValues("u2")

	if err := NewUserHandler(stub).Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp deleteUserResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.DeletedUserID != "u2" || resp.Message != "User successfully deleted" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	c, _ = authedContext(e, httptest.NewRequest(http.MethodDelete, "/users/admin-1", nil), adminActor)
	c.SetParamNames("id")
	c.SetParamValues("admin-1")
	if err := NewUserHandler(stub).Delete(c); !errors.Is(err, domain.ErrSelfDelete) {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}
}
