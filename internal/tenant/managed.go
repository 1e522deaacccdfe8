package tenant

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/locauto/locauto/internal/store"
)

// dbFileName is the SQLite database file inside each tenant directory.
const dbFileName = "locauto.db"

// Managed wraps a tenant's store with metadata and access tracking.
type Managed struct {
	ID       string
	Store    store.Store
	Meta     *Meta
	BasePath string

	mu        sync.Mutex
	metaDirty bool
}

// newManaged opens a tenant from an existing directory.
func newManaged(id, basePath string) (*Managed, error) {
	metaPath := filepath.Join(basePath, "meta.yaml")

	meta, err := LoadMeta(metaPath)
	if err != nil {
		return nil, err
	}

	sqliteStore, err := store.NewSQLiteStore(filepath.Join(basePath, dbFileName))
	if err != nil {
		return nil, err
	}

	return &Managed{
		ID:       id,
		Store:    sqliteStore,
		Meta:     meta,
		BasePath: basePath,
	}, nil
}

// TouchAccessed updates the last_accessed timestamp.
// Metadata is saved to disk lazily, not on every access.
func (m *Managed) TouchAccessed() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Meta.LastAccessed = time.Now().UTC()
	m.metaDirty = true
}

// Status returns the tenant's current access status.
func (m *Managed) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Meta.Status
}

// Plan returns the tenant's subscription tier.
func (m *Managed) Plan() Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Meta.Plan
}

// SetPlan updates the subscription tier and persists metadata immediately.
func (m *Managed) SetPlan(plan Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Meta.Plan = plan
	m.metaDirty = false
	return SaveMeta(filepath.Join(m.BasePath, "meta.yaml"), m.Meta)
}

// SetStatus updates the tenant status and persists metadata immediately.
// Status changes gate all API access, so they must not be lost to a crash.
func (m *Managed) SetStatus(status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Meta.Status = status
	m.metaDirty = false
	return SaveMeta(filepath.Join(m.BasePath, "meta.yaml"), m.Meta)
}

// FlushMeta saves metadata to disk if dirty.
func (m *Managed) FlushMeta() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.metaDirty {
		return nil
	}

	if err := SaveMeta(filepath.Join(m.BasePath, "meta.yaml"), m.Meta); err != nil {
		return err
	}

	m.metaDirty = false
	return nil
}

// Close closes the underlying store and flushes metadata.
func (m *Managed) Close() error {
	if err := m.FlushMeta(); err != nil {
		slog.Warn("failed to flush tenant metadata", "tenant_id", m.ID, "error", err)
	}
	return m.Store.Close()
}
