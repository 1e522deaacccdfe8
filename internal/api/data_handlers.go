package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locauto/locauto/internal/store"
)

// KeyFieldHeader optionally overrides the key field for generic writes.
// Absent, the table's registered key field is used.
const KeyFieldHeader = "X-Locauto-Key-Field"

// maxDataBody caps generic write payloads.
const maxDataBody = 1 << 20 // 1 MiB

// DataInsert handles POST /api/v1/data/{table}. The body is the row
// payload; columns are validated against the table's allow-list.
func (h *Handler) DataInsert(w http.ResponseWriter, r *http.Request) {
	h.applyData(w, r, store.OpInsert)
}

// DataUpdate handles PUT /api/v1/data/{table}/{key}.
func (h *Handler) DataUpdate(w http.ResponseWriter, r *http.Request) {
	h.applyData(w, r, store.OpUpdate)
}

// DataDelete handles DELETE /api/v1/data/{table}/{key}.
func (h *Handler) DataDelete(w http.ResponseWriter, r *http.Request) {
	h.applyData(w, r, store.OpDelete)
}

func (h *Handler) applyData(w http.ResponseWriter, r *http.Request, operation string) {
	t := MustTenantFromContext(r.Context())
	table := chi.URLParam(r, "table")

	keyField := r.Header.Get(KeyFieldHeader)
	if keyField == "" {
		registered, ok := store.SyncTableKeyField(table)
		if !ok {
			WriteProblem(w, r, http.StatusBadRequest, "Unknown table: "+table)
			return
		}
		keyField = registered
	}

	payload, ok := h.dataPayload(w, r, operation, keyField)
	if !ok {
		return
	}

	op := store.SyncOperation{
		Table:     table,
		Operation: operation,
		KeyField:  keyField,
		Payload:   payload,
	}
	if err := t.Store.ApplyOperation(r.Context(), op); err != nil {
		MapStoreError(w, r, err)
		return
	}

	switch operation {
	case store.OpInsert:
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// dataPayload assembles the operation payload. Updates and deletes carry
// the target key in the URL; it is folded into the payload under the key
// field so the store sees the same shape the offline queue produces.
func (h *Handler) dataPayload(w http.ResponseWriter, r *http.Request, operation, keyField string) (json.RawMessage, bool) {
	if operation == store.OpDelete {
		payload, _ := json.Marshal(map[string]string{keyField: chi.URLParam(r, "key")})
		return payload, true
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxDataBody))
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Failed to read request body")
		return nil, false
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return nil, false
	}

	if operation == store.OpUpdate {
		fields[keyField] = chi.URLParam(r, "key")
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid payload")
		return nil, false
	}
	return payload, true
}
