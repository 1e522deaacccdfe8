package alerts

import (
	"sync"
	"time"
)

// Registry holds one aggregator per tenant, created lazily on first use.
// Aggregators are cheap (a cached snapshot and a mutex) so evicting them is
// left to process restart.
type Registry struct {
	mu          sync.Mutex
	aggregators map[string]*Aggregator
	opts        []Option
}

// NewRegistry creates a registry; the options are applied to every
// aggregator it creates.
func NewRegistry(cacheWindow time.Duration, opts ...Option) *Registry {
	all := append([]Option{WithCacheWindow(cacheWindow)}, opts...)
	return &Registry{
		aggregators: make(map[string]*Aggregator),
		opts:        all,
	}
}

// For returns the tenant's aggregator, creating it over the given reader
// on first use.
func (r *Registry) For(tenantID string, reader Reader) *Aggregator {
	r.mu.Lock()
	defer r.mu.Unlock()
	if agg, ok := r.aggregators[tenantID]; ok {
		return agg
	}
	agg := New(reader, r.opts...)
	r.aggregators[tenantID] = agg
	return agg
}

// Drop removes a tenant's aggregator, used when a tenant is deleted.
func (r *Registry) Drop(tenantID string) {
	r.mu.Lock()
	delete(r.aggregators, tenantID)
	r.mu.Unlock()
}
