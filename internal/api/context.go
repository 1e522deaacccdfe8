package api

import (
	"context"
	"errors"

	"github.com/locauto/locauto/internal/tenant"
)

// tenantContextKey is the context key for the resolved tenant.
type tenantContextKey struct{}

// ErrNoTenantInContext indicates no tenant was found in the context.
var ErrNoTenantInContext = errors.New("no tenant in context")

// WithTenant returns a new context with the tenant attached.
func WithTenant(ctx context.Context, t *tenant.Managed) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, t)
}

// TenantFromContext extracts the tenant from the context.
// Returns ErrNoTenantInContext if not present or nil.
func TenantFromContext(ctx context.Context) (*tenant.Managed, error) {
	t, ok := ctx.Value(tenantContextKey{}).(*tenant.Managed)
	if !ok || t == nil {
		return nil, ErrNoTenantInContext
	}
	return t, nil
}

// MustTenantFromContext extracts the tenant or panics.
// Use only when middleware guarantees tenant presence.
func MustTenantFromContext(ctx context.Context) *tenant.Managed {
	t, err := TenantFromContext(ctx)
	if err != nil {
		panic("tenant not in context: middleware misconfiguration")
	}
	return t
}
