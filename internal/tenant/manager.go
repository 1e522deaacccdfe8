package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager manages multiple isolated tenants with lazy loading.
// Each tenant owns its own SQLite database under the root path, so data
// isolation is a property of the filesystem layout rather than row filters.
type Manager struct {
	rootPath string

	mu      sync.RWMutex
	tenants map[string]*Managed
}

// NewManager creates a manager with the given root path.
// Creates the root directory if it doesn't exist.
func NewManager(rootPath string) (*Manager, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(rootPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		rootPath = filepath.Join(home, rootPath[2:])
	}

	if err := os.MkdirAll(rootPath, 0755); err != nil {
		return nil, fmt.Errorf("create tenants root directory: %w", err)
	}

	return &Manager{
		rootPath: rootPath,
		tenants:  make(map[string]*Managed),
	}, nil
}

// Get returns the tenant for the given ID, loading it if necessary.
// Returns ErrTenantNotFound if the tenant doesn't exist.
func (m *Manager) Get(ctx context.Context, tenantID string) (*Managed, error) {
	if err := ValidateTenantID(tenantID); err != nil {
		return nil, err
	}

	// Fast path: already loaded
	m.mu.RLock()
	if managed, ok := m.tenants[tenantID]; ok {
		m.mu.RUnlock()
		managed.TouchAccessed()
		return managed, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if managed, ok := m.tenants[tenantID]; ok {
		managed.TouchAccessed()
		return managed, nil
	}

	tenantPath := m.tenantPath(tenantID)
	if _, err := os.Stat(tenantPath); os.IsNotExist(err) {
		return nil, ErrTenantNotFound
	}

	managed, err := newManaged(tenantID, tenantPath)
	if err != nil {
		return nil, fmt.Errorf("load tenant %q: %w", tenantID, err)
	}

	m.tenants[tenantID] = managed

	slog.Info("tenant loaded",
		"component", "tenant",
		"action", "tenant_loaded",
		"tenant_id", tenantID,
	)

	managed.TouchAccessed()
	return managed, nil
}

// Create creates a new tenant with the given ID.
// Returns ErrTenantAlreadyExists if the tenant already exists.
func (m *Manager) Create(ctx context.Context, tenantID, name string) (*Managed, error) {
	if err := ValidateTenantID(tenantID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tenantPath := m.tenantPath(tenantID)
	if _, err := os.Stat(tenantPath); err == nil {
		return nil, ErrTenantAlreadyExists
	}

	if err := m.createTenantDir(tenantID, name); err != nil {
		return nil, err
	}

	managed, err := newManaged(tenantID, tenantPath)
	if err != nil {
		return nil, fmt.Errorf("load new tenant %q: %w", tenantID, err)
	}

	m.tenants[tenantID] = managed

	slog.Info("tenant created",
		"component", "tenant",
		"action", "tenant_created",
		"tenant_id", tenantID,
	)

	return managed, nil
}

// SetStatus updates a tenant's access status.
func (m *Manager) SetStatus(ctx context.Context, tenantID string, status Status) error {
	managed, err := m.Get(ctx, tenantID)
	if err != nil {
		return err
	}

	if err := managed.SetStatus(status); err != nil {
		return fmt.Errorf("persist tenant status: %w", err)
	}

	slog.Info("tenant status changed",
		"component", "tenant",
		"action", "tenant_status_changed",
		"tenant_id", tenantID,
		"status", string(status),
	)

	return nil
}

// SetPlan updates a tenant's subscription tier.
func (m *Manager) SetPlan(ctx context.Context, tenantID string, plan Plan) error {
	managed, err := m.Get(ctx, tenantID)
	if err != nil {
		return err
	}

	if err := managed.SetPlan(plan); err != nil {
		return fmt.Errorf("persist tenant plan: %w", err)
	}

	slog.Info("tenant plan changed",
		"component", "tenant",
		"action", "tenant_plan_changed",
		"tenant_id", tenantID,
		"plan", string(plan),
	)

	return nil
}

// Delete removes a tenant and its data.
// Returns ErrTenantNotFound if the tenant doesn't exist.
func (m *Manager) Delete(ctx context.Context, tenantID string) error {
	if err := ValidateTenantID(tenantID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tenantPath := m.tenantPath(tenantID)
	if _, err := os.Stat(tenantPath); os.IsNotExist(err) {
		return ErrTenantNotFound
	}

	// Close if loaded
	if managed, ok := m.tenants[tenantID]; ok {
		if err := managed.Close(); err != nil {
			slog.Warn("error closing tenant before deletion",
				"tenant_id", tenantID, "error", err)
		}
		delete(m.tenants, tenantID)
	}

	if err := os.RemoveAll(tenantPath); err != nil {
		return fmt.Errorf("remove tenant directory: %w", err)
	}

	slog.Info("tenant deleted",
		"component", "tenant",
		"action", "tenant_deleted",
		"tenant_id", tenantID,
	)

	return nil
}

// List returns metadata for all existing tenants.
func (m *Manager) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(m.rootPath)
	if err != nil {
		return nil, fmt.Errorf("read tenants directory: %w", err)
	}

	var result []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := m.tenantInfo(entry.Name())
		if err != nil {
			slog.Warn("error reading tenant directory",
				"path", entry.Name(), "error", err)
			continue
		}
		result = append(result, info)
	}

	return result, nil
}

// tenantInfo collects summary information about a single tenant.
func (m *Manager) tenantInfo(tenantID string) (Info, error) {
	basePath := m.tenantPath(tenantID)

	meta, err := LoadMeta(filepath.Join(basePath, "meta.yaml"))
	if err != nil {
		return Info{}, err
	}

	var sizeBytes int64
	if info, err := os.Stat(filepath.Join(basePath, dbFileName)); err == nil {
		sizeBytes = info.Size()
	}

	return Info{
		ID:           tenantID,
		Created:      meta.Created,
		LastAccessed: meta.LastAccessed,
		Name:         meta.Name,
		Plan:         meta.Plan,
		Status:       meta.Status,
		SizeBytes:    sizeBytes,
	}, nil
}

// tenantPath returns the filesystem path for a tenant ID.
func (m *Manager) tenantPath(tenantID string) string {
	return filepath.Join(m.rootPath, tenantID)
}

// createTenantDir creates a new tenant directory with metadata.
func (m *Manager) createTenantDir(tenantID, name string) error {
	tenantPath := m.tenantPath(tenantID)

	if err := os.MkdirAll(tenantPath, 0755); err != nil {
		return fmt.Errorf("create tenant directory: %w", err)
	}

	meta := NewMeta(name)
	if err := SaveMeta(filepath.Join(tenantPath, "meta.yaml"), meta); err != nil {
		// Clean up directory on failure
		os.RemoveAll(tenantPath)
		return fmt.Errorf("write tenant metadata: %w", err)
	}

	return nil
}

// Close closes all loaded tenants.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error
	for id, managed := range m.tenants {
		if err := managed.Close(); err != nil {
			slog.Error("error closing tenant", "tenant_id", id, "error", err)
			lastErr = err
		}
	}

	return lastErr
}
