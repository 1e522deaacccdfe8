package tenant

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Status represents the billing and verification state of a tenant.
// Only active tenants may use the API; every other status blocks access
// and is reported to the caller so the front-end can route accordingly.
type Status string

const (
	StatusActive              Status = "active"
	StatusSuspended           Status = "suspended"
	StatusPendingPayment      Status = "pending_payment"
	StatusPendingVerification Status = "pending_verification"
)

// Plan names the subscription tier of a tenant.
type Plan string

const (
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

// Meta contains tenant-level metadata persisted in meta.yaml.
type Meta struct {
	// Created is when the tenant was first created.
	Created time.Time `yaml:"created"`
	// LastAccessed is when the tenant was last accessed (read or write).
	LastAccessed time.Time `yaml:"last_accessed"`
	// Name is the tenant's display name.
	Name string `yaml:"name,omitempty"`
	// Plan is the subscription tier.
	Plan Plan `yaml:"plan"`
	// Status gates API access for the tenant.
	Status Status `yaml:"status"`
}

// Info contains summary information about a tenant.
type Info struct {
	ID           string    `json:"id"`
	Created      time.Time `json:"created"`
	LastAccessed time.Time `json:"last_accessed"`
	Name         string    `json:"name,omitempty"`
	Plan         Plan      `json:"plan"`
	Status       Status    `json:"status"`
	SizeBytes    int64     `json:"size_bytes"`
}

// NewMeta creates metadata for a new tenant, active on the standard plan.
func NewMeta(name string) *Meta {
	now := time.Now().UTC()
	return &Meta{
		Created:      now,
		LastAccessed: now,
		Name:         name,
		Plan:         PlanStandard,
		Status:       StatusActive,
	}
}

// LoadMeta reads tenant metadata from a file path.
func LoadMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse tenant metadata: %w", err)
	}

	// Older metadata files predate status tracking.
	if meta.Status == "" {
		meta.Status = StatusActive
	}
	if meta.Plan == "" {
		meta.Plan = PlanStandard
	}

	return &meta, nil
}

// SaveMeta writes tenant metadata to a file path.
func SaveMeta(path string, meta *Meta) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal tenant metadata: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
