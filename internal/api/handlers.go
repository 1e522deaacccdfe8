package api

import (
	"encoding/json"
	"net/http"

	"github.com/locauto/locauto/internal/alerts"
	"github.com/locauto/locauto/internal/documents"
	"github.com/locauto/locauto/internal/tenant"
	"github.com/locauto/locauto/internal/types"
)

// Handler implements the API handlers
type Handler struct {
	tenants  *tenant.Manager
	alerts   *alerts.Registry
	docs     *documents.Service
	apiKey   string
	adminKey string
	version  string
}

// NewHandler creates a new Handler.
func NewHandler(tenants *tenant.Manager, registry *alerts.Registry, docs *documents.Service, apiKey, adminKey, version string) *Handler {
	return &Handler{
		tenants:  tenants,
		alerts:   registry,
		docs:     docs,
		apiKey:   apiKey,
		adminKey: adminKey,
		version:  version,
	}
}

// Health returns the health status. Public: the client connectivity
// monitor probes it without credentials.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:  "healthy",
		Version: h.version,
	})
}

// Stats returns aggregate counts for the request's tenant.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	stats, err := t.Store.GetStats(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body, writing a 400 problem on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}
