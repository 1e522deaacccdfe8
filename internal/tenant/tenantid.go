package tenant

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	// MaxTenantIDLength is the maximum length of a tenant ID.
	MaxTenantIDLength = 64
)

var (
	// ErrInvalidTenantID indicates a tenant ID failed validation.
	ErrInvalidTenantID = errors.New("invalid tenant ID")
	// ErrTenantNotFound indicates the requested tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrTenantAlreadyExists indicates a tenant already exists during creation.
	ErrTenantAlreadyExists = errors.New("tenant already exists")
	// ErrTenantNotActive indicates the tenant exists but its status blocks access.
	ErrTenantNotActive = errors.New("tenant not active")
)

// tenantIDPattern matches a valid tenant ID.
// Must start and end with alphanumeric, can contain hyphens in the middle.
var tenantIDPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateTenantID validates a tenant ID against format rules.
func ValidateTenantID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty tenant ID", ErrInvalidTenantID)
	}

	if len(id) > MaxTenantIDLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidTenantID, MaxTenantIDLength)
	}

	if !tenantIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q (must be lowercase alphanumeric with hyphens)",
			ErrInvalidTenantID, id)
	}

	return nil
}
