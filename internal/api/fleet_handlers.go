package api

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/locauto/locauto/internal/types"
	"github.com/locauto/locauto/internal/validation"
)

// --- Vehicles ---

// ListVehicles handles GET /api/v1/vehicles
func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	vehicles, err := t.Store.ListVehicles(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if vehicles == nil {
		vehicles = []types.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// CreateVehicle handles POST /api/v1/vehicles
func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	var req types.NewVehicle
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateNewVehicle(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	vehicle, err := t.Store.CreateVehicle(r.Context(), req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

// GetVehicle handles GET /api/v1/vehicles/{id}
func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	vehicle, err := t.Store.GetVehicle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// UpdateVehicle handles PUT /api/v1/vehicles/{id}
func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	var vehicle types.Vehicle
	if !decodeJSON(w, r, &vehicle) {
		return
	}
	vehicle.ID = chi.URLParam(r, "id")

	if err := t.Store.UpdateVehicle(r.Context(), vehicle); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteVehicle handles DELETE /api/v1/vehicles/{id}
func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	if err := t.Store.DeleteVehicle(r.Context(), chi.URLParam(r, "id")); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Clients ---

// ListClients handles GET /api/v1/clients
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	clients, err := t.Store.ListClients(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if clients == nil {
		clients = []types.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

// CreateClient handles POST /api/v1/clients
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	var req types.NewClient
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateNewClient(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	client, err := t.Store.CreateClient(r.Context(), req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

// GetClient handles GET /api/v1/clients/{id}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	client, err := t.Store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// UpdateClient handles PUT /api/v1/clients/{id}
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	var client types.Client
	if !decodeJSON(w, r, &client) {
		return
	}
	client.ID = chi.URLParam(r, "id")

	if err := t.Store.UpdateClient(r.Context(), client); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteClient handles DELETE /api/v1/clients/{id}
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	if err := t.Store.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Contracts ---

// ListContracts handles GET /api/v1/contracts
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	contracts, err := t.Store.ListContracts(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if contracts == nil {
		contracts = []types.Contract{}
	}
	writeJSON(w, http.StatusOK, contracts)
}

// CreateContract handles POST /api/v1/contracts
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	var req types.NewContract
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateNewContract(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	contract, err := t.Store.CreateContract(r.Context(), req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract)
}

// GetContract handles GET /api/v1/contracts/{id}
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	contract, err := t.Store.GetContract(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// UpdateContractStatus handles PUT /api/v1/contracts/{id}/status
func (h *Handler) UpdateContractStatus(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	var req struct {
		Status types.ContractStatus `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.ValidateEnum("status", string(req.Status), []string{
		string(types.ContractOpen),
		string(types.ContractClosed),
		string(types.ContractCancelled),
	}); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*err})
		return
	}

	if err := t.Store.UpdateContractStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteContract handles DELETE /api/v1/contracts/{id}
func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	if err := t.Store.DeleteContract(r.Context(), chi.URLParam(r, "id")); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportContracts handles GET /api/v1/contracts/export, streaming the
// tenant's contracts as CSV.
func (h *Handler) ExportContracts(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	contracts, err := t.Store.ListContracts(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="contracts.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "vehicle_id", "client_id", "starts_at", "ends_at", "daily_rate_cents", "status"})
	for _, c := range contracts {
		_ = cw.Write([]string{
			c.ID,
			c.VehicleID,
			c.ClientID,
			c.StartsAt.UTC().Format(time.RFC3339),
			c.EndsAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(c.DailyRateCents, 10),
			string(c.Status),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("csv export failed", "tenant_id", t.ID, "error", err)
	}
}
