package api

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/locauto/locauto/internal/tenant"
)

const (
	// TenantHeader selects the tenant a request operates on.
	TenantHeader = "X-Locauto-Tenant"
	// ClientHeader carries the stable installation ID of an offline
	// client replaying queued writes. Optional, logging only.
	ClientHeader = "X-Locauto-Client"
)

// extractBearerToken extracts the token from Authorization header.
// Returns empty string for missing/malformed headers.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Must start with "Bearer " (case-sensitive per RFC 6750)
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}

// constantTimeEqual compares two strings using constant-time comparison
// to prevent timing attacks.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// AuthMiddleware validates Bearer token using constant-time comparison.
// Returns 401 RFC 7807 Problem Details on auth failure.
// MUST NOT include expected API key in logs or responses.
func AuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if !constantTimeEqual(token, apiKey) {
				slog.Warn("auth failure",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_ip", r.RemoteAddr,
				)
				WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TenantMiddleware resolves the tenant named by the X-Locauto-Tenant header,
// rejects requests for unknown or non-active tenants, and attaches the
// tenant to the request context.
func TenantMiddleware(tenants *tenant.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := strings.TrimSpace(r.Header.Get(TenantHeader))
			if tenantID == "" {
				WriteProblem(w, r, http.StatusBadRequest, "Missing "+TenantHeader+" header")
				return
			}

			managed, err := tenants.Get(r.Context(), tenantID)
			if err != nil {
				if errors.Is(err, tenant.ErrTenantNotFound) || errors.Is(err, tenant.ErrInvalidTenantID) {
					WriteProblem(w, r, http.StatusNotFound, "Tenant not found")
					return
				}
				slog.Error("tenant resolution failed", "tenant_id", tenantID, "error", err)
				WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			if status := managed.Status(); status != tenant.StatusActive {
				WriteTenantBlocked(w, r, status)
				return
			}

			managed.TouchAccessed()
			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), managed)))
		})
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"tenant_id", r.Header.Get(TenantHeader),
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		// Offline clients identify their installation on replayed writes.
		if clientID := r.Header.Get(ClientHeader); clientID != "" {
			attrs = append(attrs, "client_id", clientID)
		}
		slog.Info("request", attrs...)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecoveryMiddleware catches panics and returns 500 Problem Details.
// Panic details are logged but never exposed to the client.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				slog.Error("panic recovered",
					"error", recovered,
					"stack", string(debug.Stack()),
					"path", r.URL.Path,
					"method", r.Method,
				)
				WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
