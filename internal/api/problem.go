package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/locauto/locauto/internal/documents"
	"github.com/locauto/locauto/internal/store"
	"github.com/locauto/locauto/internal/tenant"
	"github.com/locauto/locauto/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusUnauthorized: {
		typeURI: "https://locauto.dev/errors/unauthorized",
		title:   "Unauthorized",
	},
	http.StatusBadRequest: {
		typeURI: "https://locauto.dev/errors/bad-request",
		title:   "Bad Request",
	},
	http.StatusNotFound: {
		typeURI: "https://locauto.dev/errors/not-found",
		title:   "Not Found",
	},
	http.StatusInternalServerError: {
		typeURI: "https://locauto.dev/errors/internal-error",
		title:   "Internal Server Error",
	},
	http.StatusUnprocessableEntity: {
		typeURI: "https://locauto.dev/errors/validation-error",
		title:   "Validation Error",
	},
	http.StatusServiceUnavailable: {
		typeURI: "https://locauto.dev/errors/service-unavailable",
		title:   "Service Unavailable",
	},
	http.StatusConflict: {
		typeURI: "https://locauto.dev/errors/conflict",
		title:   "Conflict",
	},
	http.StatusForbidden: {
		typeURI: "https://locauto.dev/errors/forbidden",
		title:   "Forbidden",
	},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt = struct {
			typeURI string
			title   string
		}{
			typeURI: "https://locauto.dev/errors/unknown",
			title:   http.StatusText(status),
		}
	}

	p := Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	pt := problemTypes[http.StatusUnprocessableEntity]

	p := ProblemWithErrors{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   http.StatusUnprocessableEntity,
			Detail:   detail,
			Instance: r.URL.Path,
		},
		Errors: errs,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// tenantProblem extends Problem with the tenant's status so the front-end
// can route to the matching billing or verification page.
type tenantProblem struct {
	Problem
	TenantStatus string `json:"tenant_status"`
}

// WriteTenantBlocked writes the 403 response for a non-active tenant.
func WriteTenantBlocked(w http.ResponseWriter, r *http.Request, status tenant.Status) {
	pt := problemTypes[http.StatusForbidden]

	p := tenantProblem{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   http.StatusForbidden,
			Detail:   "Tenant account is not active",
			Instance: r.URL.Path,
		},
		TenantStatus: string(status),
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusForbidden)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapStoreError converts domain errors to Problem Details responses.
func MapStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, store.ErrDuplicate):
		WriteProblem(w, r, http.StatusConflict, "Duplicate entry")
	case errors.Is(err, store.ErrUnknownTable),
		errors.Is(err, store.ErrUnknownColumn),
		errors.Is(err, store.ErrMissingKey),
		errors.Is(err, store.ErrInvalidPayload):
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, tenant.ErrTenantNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Tenant not found")
	case errors.Is(err, tenant.ErrTenantAlreadyExists):
		WriteProblem(w, r, http.StatusConflict, "Tenant already exists")
	case errors.Is(err, tenant.ErrInvalidTenantID):
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, documents.ErrNotConfigured):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Document storage is not configured")
	case errors.Is(err, documents.ErrRenderUnavailable):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Document rendering is temporarily unavailable")
	default:
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
