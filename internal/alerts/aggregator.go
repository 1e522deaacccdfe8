// Package alerts computes the dashboard alert count for a tenant: documents
// nearing expiry, vehicles due for service, same-day contract movements and
// upcoming payments. The aggregator is an explicitly constructed service with
// an injected store and clock so the cache-window behavior is deterministic
// under test.
package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/locauto/locauto/internal/types"
)

// Alert dimensions, used as keys in the snapshot breakdown.
const (
	DimInsurance        = "insurance"
	DimInspection       = "inspection"
	DimVignette         = "vignette"
	DimRegistrationCard = "registration_card"
	DimService          = "service"
	DimPickups          = "pickups"
	DimReturns          = "returns"
	DimCheques          = "cheques"
	DimInstallments     = "installments"
)

// ServiceDistanceKm is the remaining distance at which a vehicle is
// considered due for its next scheduled service.
const ServiceDistanceKm = 1000

// DefaultCacheWindow is the minimum interval between two aggregation passes.
const DefaultCacheWindow = 5 * time.Minute

// Reader is the store surface the aggregator depends on.
type Reader interface {
	ListVehicles(ctx context.Context) ([]types.Vehicle, error)
	GetAlertThresholds(ctx context.Context) (types.AlertThresholds, error)
	LatestExpiries(ctx context.Context, table string) (map[string]time.Time, error)
	CountContractsStarting(ctx context.Context, day time.Time) (int, error)
	CountContractsEnding(ctx context.Context, day time.Time) (int, error)
	CountPendingCheques(ctx context.Context, dueBefore time.Time) (int, error)
	CountPendingInstallments(ctx context.Context, dueBefore time.Time) (int, error)
}

// Aggregator computes and caches a tenant's alert snapshot.
type Aggregator struct {
	reader      Reader
	now         func() time.Time
	cacheWindow time.Duration

	mu       sync.Mutex
	snapshot *types.AlertSnapshot
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock injects a clock, used by tests to control the cache window.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithCacheWindow overrides the minimum refresh interval.
func WithCacheWindow(d time.Duration) Option {
	return func(a *Aggregator) { a.cacheWindow = d }
}

// New creates an aggregator over the given reader.
func New(reader Reader, opts ...Option) *Aggregator {
	a := &Aggregator{
		reader:      reader,
		now:         time.Now,
		cacheWindow: DefaultCacheWindow,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Snapshot returns the cached snapshot, or nil if no pass has run yet.
func (a *Aggregator) Snapshot() *types.AlertSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.snapshot == nil {
		return nil
	}
	snap := *a.snapshot
	return &snap
}

// Refresh recomputes the snapshot, unless a pass ran within the cache
// window, in which case the cached snapshot is returned untouched and no
// reads are issued. Aggregation failures are logged and yield a zero
// snapshot rather than an error: a broken dashboard counter must never
// block the rest of the application.
func (a *Aggregator) Refresh(ctx context.Context) types.AlertSnapshot {
	a.mu.Lock()
	now := a.now().UTC()
	if a.snapshot != nil && now.Sub(a.snapshot.ComputedAt) < a.cacheWindow {
		snap := *a.snapshot
		a.mu.Unlock()
		return snap
	}
	a.mu.Unlock()

	snap, err := a.compute(ctx, now)
	if err != nil {
		slog.Error("alert aggregation failed",
			"component", "alerts",
			"action", "refresh_failed",
			"error", err,
		)
		snap = types.AlertSnapshot{ComputedAt: now}
	}

	a.mu.Lock()
	a.snapshot = &snap
	a.mu.Unlock()
	return snap
}

// readResults collects the fan-out query results for one aggregation pass.
type readResults struct {
	insurances   map[string]time.Time
	inspections  map[string]time.Time
	vignettes    map[string]time.Time
	pickups      int
	returns      int
	cheques      int
	installments int
}

func (a *Aggregator) compute(ctx context.Context, now time.Time) (types.AlertSnapshot, error) {
	thresholds, err := a.reader.GetAlertThresholds(ctx)
	if err != nil {
		return types.AlertSnapshot{}, err
	}
	thresholds = thresholds.Normalized()

	vehicles, err := a.reader.ListVehicles(ctx)
	if err != nil {
		return types.AlertSnapshot{}, err
	}
	// A tenant with no fleet has nothing to alert on, payments included.
	if len(vehicles) == 0 {
		return types.AlertSnapshot{ComputedAt: now}, nil
	}
	results, err := a.fanOut(ctx, now, thresholds)
	if err != nil {
		return types.AlertSnapshot{}, err
	}

	byDim := map[string]int{}
	for _, v := range vehicles {
		// Sub-leased vehicles are the owning agency's paperwork problem.
		if v.Category == types.CategorySubLease {
			continue
		}

		if expiringOrMissing(results.insurances, v.ID, now, thresholds.InsuranceDays) {
			byDim[DimInsurance]++
		}
		if expiringOrMissing(results.inspections, v.ID, now, thresholds.InspectionDays) {
			byDim[DimInspection]++
		}
		if expiringOrMissing(results.vignettes, v.ID, now, thresholds.VignetteDays) {
			byDim[DimVignette]++
		}
		if !v.HasRegistrationCard {
			byDim[DimRegistrationCard]++
		}
		if serviceDue(v) {
			byDim[DimService]++
		}
	}

	byDim[DimPickups] += results.pickups
	byDim[DimReturns] += results.returns
	byDim[DimCheques] += results.cheques
	byDim[DimInstallments] += results.installments

	total := 0
	for dim, count := range byDim {
		if count == 0 {
			delete(byDim, dim)
			continue
		}
		total += count
	}

	return types.AlertSnapshot{
		Total:       total,
		ByDimension: byDim,
		ComputedAt:  now,
	}, nil
}

// fanOut issues the dimension reads concurrently and joins their results.
func (a *Aggregator) fanOut(ctx context.Context, now time.Time, t types.AlertThresholds) (*readResults, error) {
	results := &readResults{}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	run := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}

	run(func() error {
		m, err := a.reader.LatestExpiries(ctx, "insurances")
		results.insurances = m
		return err
	})
	run(func() error {
		m, err := a.reader.LatestExpiries(ctx, "inspections")
		results.inspections = m
		return err
	})
	run(func() error {
		m, err := a.reader.LatestExpiries(ctx, "vignettes")
		results.vignettes = m
		return err
	})
	run(func() error {
		n, err := a.reader.CountContractsStarting(ctx, now)
		results.pickups = n
		return err
	})
	run(func() error {
		n, err := a.reader.CountContractsEnding(ctx, now)
		results.returns = n
		return err
	})
	run(func() error {
		n, err := a.reader.CountPendingCheques(ctx, now.AddDate(0, 0, t.ChequeDays))
		results.cheques = n
		return err
	})
	run(func() error {
		n, err := a.reader.CountPendingInstallments(ctx, now.AddDate(0, 0, t.InstallmentDays))
		results.installments = n
		return err
	})

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// expiringOrMissing reports whether the vehicle has no record at all or its
// latest expiry falls within thresholdDays from now. The two cases count as
// one undifferentiated alert.
func expiringOrMissing(expiries map[string]time.Time, vehicleID string, now time.Time, thresholdDays int) bool {
	expiry, ok := expiries[vehicleID]
	if !ok {
		return true
	}
	return expiry.Before(now.AddDate(0, 0, thresholdDays))
}

// serviceDue reports whether a vehicle is due for scheduled service: either
// no service target has ever been recorded, or the remaining distance to the
// next service is at most ServiceDistanceKm.
func serviceDue(v types.Vehicle) bool {
	if v.NextServiceKm == nil {
		return true
	}
	return *v.NextServiceKm-v.MileageKm <= ServiceDistanceKm
}
