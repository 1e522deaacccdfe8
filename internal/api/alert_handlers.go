package api

import (
	"net/http"

	"github.com/locauto/locauto/internal/types"
	"github.com/locauto/locauto/internal/validation"
)

// GetAlerts handles GET /api/v1/alerts. Returns the cached snapshot,
// computing one if the cache window has elapsed (or no pass ran yet).
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	agg := h.alerts.For(t.ID, t.Store)
	snap := agg.Refresh(r.Context())
	writeJSON(w, http.StatusOK, snap)
}

// RefreshAlerts handles POST /api/v1/alerts/refresh. Within the cache
// window this is a no-op returning the cached snapshot.
func (h *Handler) RefreshAlerts(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	agg := h.alerts.For(t.ID, t.Store)
	snap := agg.Refresh(r.Context())
	writeJSON(w, http.StatusOK, snap)
}

// GetThresholds handles GET /api/v1/settings/alerts.
func (h *Handler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	thresholds, err := t.Store.GetAlertThresholds(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, thresholds.Normalized())
}

// SetThresholds handles PUT /api/v1/settings/alerts.
func (h *Handler) SetThresholds(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	var req types.AlertThresholds
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateThresholds(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	if err := t.Store.SetAlertThresholds(r.Context(), req); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
