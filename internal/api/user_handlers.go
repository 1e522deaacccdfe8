package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locauto/locauto/internal/auth"
	"github.com/locauto/locauto/internal/store"
	"github.com/locauto/locauto/internal/types"
	"github.com/locauto/locauto/internal/validation"
)

// ActorHeader identifies the tenant user performing an admin request.
const ActorHeader = "X-Locauto-Actor"

// requireAdminActor enforces that the acting user holds the admin role.
// A tenant with no users yet may bootstrap its first account without one.
func (h *Handler) requireAdminActor(w http.ResponseWriter, r *http.Request) bool {
	t := MustTenantFromContext(r.Context())

	actor := r.Header.Get(ActorHeader)
	if actor == "" {
		users, err := t.Store.ListUsers(r.Context())
		if err != nil {
			MapStoreError(w, r, err)
			return false
		}
		if len(users) == 0 {
			return true
		}
		WriteProblem(w, r, http.StatusForbidden, "Missing "+ActorHeader+" header")
		return false
	}

	user, err := t.Store.GetUserByEmail(r.Context(), actor)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteProblem(w, r, http.StatusForbidden, "Unknown acting user")
			return false
		}
		MapStoreError(w, r, err)
		return false
	}
	if user.Role != types.RoleAdmin {
		WriteProblem(w, r, http.StatusForbidden, "Admin role required")
		return false
	}
	return true
}

// ListUsers handles GET /api/v1/admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())
	if !h.requireAdminActor(w, r) {
		return
	}

	users, err := t.Store.ListUsers(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if users == nil {
		users = []types.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser handles POST /api/v1/admin/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())
	if !h.requireAdminActor(w, r) {
		return
	}

	var req types.NewUser
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateNewUser(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
			{Field: "password", Message: err.Error()},
		})
		return
	}

	user, err := t.Store.CreateUser(r.Context(), req, hash)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())
	if !h.requireAdminActor(w, r) {
		return
	}

	if err := t.Store.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
