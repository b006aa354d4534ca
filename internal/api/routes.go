package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkframe/cms-api/internal/api/handler"
	"github.com/inkframe/cms-api/internal/api/middleware"
	"github.com/inkframe/cms-api/internal/core/domain"
)

// route is a protected endpoint together with its access policy.
type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
	policy  middleware.Policy
}

type handlers struct {
	auth     *handler.AuthHandler
	users    *handler.UserHandler
	contents *handler.ContentHandler
	uploads  *handler.UploadHandler
}

var (
	adminOnly     = middleware.Roles(domain.RoleAdmin)
	adminOrSelf   = middleware.RolesOrSelf("id", domain.RoleAdmin)
	editorOrAdmin = middleware.Roles(domain.RoleEditor, domain.RoleAdmin)
)

// protectedRoutes lists every endpoint behind the guard chain. The policy
// table is derived from this list so a route cannot be registered without one.
func protectedRoutes(h handlers) []route {
	return []route{
		{http.MethodGet, "/auth/me", h.auth.Me, middleware.AnyAuthenticated},

		{http.MethodPost, "/users", h.users.Create, adminOnly},
		{http.MethodGet, "/users", h.users.List, adminOnly},
		{http.MethodPatch, "/users/me", h.users.UpdateProfile, middleware.AnyAuthenticated},
		{http.MethodPatch, "/users/me/change-password", h.users.ChangePassword, middleware.AnyAuthenticated},
		{http.MethodGet, "/users/:id", h.users.Get, adminOrSelf},
		{http.MethodPatch, "/users/:id", h.users.Update, adminOrSelf},
		{http.MethodDelete, "/users/:id", h.users.Delete, adminOnly},

		{http.MethodPost, "/contents", h.contents.Create, editorOrAdmin},
		{http.MethodGet, "/contents", h.contents.List, middleware.AnyAuthenticated},
		{http.MethodGet, "/contents/user/:userId", h.contents.ListByUser, middleware.AnyAuthenticated},
		{http.MethodGet, "/contents/:id", h.contents.Get, middleware.AnyAuthenticated},
		{http.MethodPatch, "/contents/:id", h.contents.Update, editorOrAdmin},
		{http.MethodDelete, "/contents/:id", h.contents.Delete, editorOrAdmin},

		{http.MethodPost, "/uploads", h.uploads.Upload, editorOrAdmin},
	}
}

func policyTable(routes []route) middleware.PolicyTable {
	table := make(middleware.PolicyTable, len(routes))
	for _, r := range routes {
		table[middleware.PolicyKey(r.method, r.path)] = r.policy
	}
	return table
}
