package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locauto/locauto/internal/documents"
	"github.com/locauto/locauto/internal/tenant"
)

// GenerateContractDocument handles POST /api/v1/documents/contracts/{id}.
// Renders the rental contract PDF, stores it in object storage and returns
// a pre-signed download URL. Document generation is a premium-plan feature.
func (h *Handler) GenerateContractDocument(w http.ResponseWriter, r *http.Request) {
	t := MustTenantFromContext(r.Context())

	if t.Plan() != tenant.PlanPremium {
		WriteProblem(w, r, http.StatusForbidden, "Document generation requires the premium plan")
		return
	}

	contractID := chi.URLParam(r, "id")
	contract, err := t.Store.GetContract(r.Context(), contractID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	client, err := t.Store.GetClient(r.Context(), contract.ClientID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	vehicle, err := t.Store.GetVehicle(r.Context(), contract.VehicleID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	payload := documents.ContractPayload{
		Contract: *contract,
		Client:   *client,
		Vehicle:  *vehicle,
	}
	resp, err := h.docs.GenerateContract(r.Context(), t.ID, t.Store, payload)
	if err != nil {
		slog.Error("document generation failed",
			"component", "api",
			"action", "document_failed",
			"tenant_id", t.ID,
			"contract_id", contractID,
			"error", err,
		)
		MapStoreError(w, r, err)
		return
	}

	slog.Info("document generated",
		"component", "api",
		"action", "document_generated",
		"tenant_id", t.ID,
		"contract_id", contractID,
		"file_name", resp.FileName,
	)
	writeJSON(w, http.StatusOK, resp)
}
