// Package worker contains background loops run alongside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/locauto/locauto/internal/alerts"
	"github.com/locauto/locauto/internal/tenant"
)

// TenantEnumerator provides access to all managed tenants.
// This interface allows testing with mock implementations.
type TenantEnumerator interface {
	List(ctx context.Context) ([]tenant.Info, error)
	Get(ctx context.Context, tenantID string) (*tenant.Managed, error)
}

// AlertCoordinator keeps every active tenant's alert snapshot warm so the
// dashboard request path rarely pays for a full aggregation pass.
type AlertCoordinator struct {
	manager  TenantEnumerator
	registry *alerts.Registry
	interval time.Duration
}

// NewAlertCoordinator creates a coordinator refreshing alerts for all
// tenants managed by the given enumerator.
func NewAlertCoordinator(manager TenantEnumerator, registry *alerts.Registry, interval time.Duration) *AlertCoordinator {
	return &AlertCoordinator{
		manager:  manager,
		registry: registry,
		interval: interval,
	}
}

// Run starts the coordinator loop.
func (c *AlertCoordinator) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "alert-coordinator",
		"action", "worker_started",
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Refresh immediately on start
	c.refreshAll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "alert-coordinator",
				"action", "worker_stopped",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.refreshAll(ctx)
		}
	}
}

// refreshAll iterates through all active tenants and refreshes their
// snapshots. Suspended tenants are skipped; their dashboards are blocked
// anyway.
func (c *AlertCoordinator) refreshAll(ctx context.Context) {
	infos, err := c.manager.List(ctx)
	if err != nil {
		slog.Error("failed to list tenants for alert refresh",
			"component", "worker",
			"worker", "alert-coordinator",
			"action", "list_tenants_failed",
			"error", err,
		)
		return
	}

	var refreshed int
	for _, info := range infos {
		if ctx.Err() != nil {
			return // Graceful shutdown, don't log summary
		}
		if info.Status != tenant.StatusActive {
			continue
		}

		managed, err := c.manager.Get(ctx, info.ID)
		if err != nil {
			slog.Warn("failed to load tenant for alert refresh",
				"component", "worker",
				"worker", "alert-coordinator",
				"action", "tenant_load_failed",
				"tenant_id", info.ID,
				"error", err,
			)
			continue
		}

		c.registry.For(managed.ID, managed.Store).Refresh(ctx)
		refreshed++
	}

	if refreshed > 0 {
		slog.Info("alert refresh cycle completed",
			"component", "worker",
			"worker", "alert-coordinator",
			"action", "cycle_complete",
			"total", len(infos),
			"refreshed", refreshed,
		)
	}
}
