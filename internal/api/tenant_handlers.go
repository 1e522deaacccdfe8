package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locauto/locauto/internal/tenant"
)

// Operator endpoints manage the tenant registry itself. They are guarded
// by the operator admin key, never by tenant credentials.

// ListTenants handles GET /api/v1/operator/tenants
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	infos, err := h.tenants.List(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if infos == nil {
		infos = []tenant.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

// CreateTenant handles POST /api/v1/operator/tenants
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string      `json:"id"`
		Name string      `json:"name"`
		Plan tenant.Plan `json:"plan,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	managed, err := h.tenants.Create(r.Context(), req.ID, req.Name)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if req.Plan != "" && req.Plan != tenant.PlanStandard {
		if req.Plan != tenant.PlanPremium {
			WriteProblem(w, r, http.StatusBadRequest, "Unknown plan: "+string(req.Plan))
			return
		}
		if err := managed.SetPlan(req.Plan); err != nil {
			MapStoreError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     managed.ID,
		"name":   managed.Meta.Name,
		"plan":   managed.Plan(),
		"status": managed.Status(),
	})
}

// SetTenantStatus handles PUT /api/v1/operator/tenants/{id}/status
func (h *Handler) SetTenantStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status tenant.Status `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	switch req.Status {
	case tenant.StatusActive, tenant.StatusSuspended,
		tenant.StatusPendingPayment, tenant.StatusPendingVerification:
	default:
		WriteProblem(w, r, http.StatusBadRequest, "Unknown status: "+string(req.Status))
		return
	}

	if err := h.tenants.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTenantPlan handles PUT /api/v1/operator/tenants/{id}/plan
func (h *Handler) SetTenantPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan tenant.Plan `json:"plan"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	switch req.Plan {
	case tenant.PlanStandard, tenant.PlanPremium:
	default:
		WriteProblem(w, r, http.StatusBadRequest, "Unknown plan: "+string(req.Plan))
		return
	}

	if err := h.tenants.SetPlan(r.Context(), chi.URLParam(r, "id"), req.Plan); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTenant handles DELETE /api/v1/operator/tenants/{id}
func (h *Handler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "id")
	if err := h.tenants.Delete(r.Context(), tenantID); err != nil {
		MapStoreError(w, r, err)
		return
	}
	h.alerts.Drop(tenantID)
	w.WriteHeader(http.StatusNoContent)
}
