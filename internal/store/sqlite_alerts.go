package store

import (
	"context"
	"fmt"
	"time"
)

// expiryTables are the record tables reduced to latest-expiry-per-vehicle.
var expiryTables = map[string]bool{
	"insurances":  true,
	"inspections": true,
	"vignettes":   true,
}

// LatestExpiries returns the most recent expiry date per vehicle for the
// given record table. Vehicles with no rows at all are absent from the map;
// the aggregator treats absence as a missing document.
func (s *SQLiteStore) LatestExpiries(ctx context.Context, table string) (map[string]time.Time, error) {
	if !expiryTables[table] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	query := fmt.Sprintf(`
		SELECT vehicle_id, MAX(expires_at)
		FROM %s
		GROUP BY vehicle_id
	`, table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s expiries: %w", table, err)
	}
	defer rows.Close()

	result := make(map[string]time.Time)
	for rows.Next() {
		var vehicleID, expiresAt string
		if err := rows.Scan(&vehicleID, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan expiry: %w", err)
		}
		result[vehicleID] = parseTime(expiresAt)
	}

	return result, rows.Err()
}

// CountContractsStarting counts open contracts starting on the given day.
func (s *SQLiteStore) CountContractsStarting(ctx context.Context, day time.Time) (int, error) {
	start, end := dayBounds(day)
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM contracts
		WHERE status = 'open' AND starts_at >= ? AND starts_at < ?
	`, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count starting contracts: %w", err)
	}
	return count, nil
}

// CountContractsEnding counts open contracts ending on the given day.
func (s *SQLiteStore) CountContractsEnding(ctx context.Context, day time.Time) (int, error) {
	start, end := dayBounds(day)
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM contracts
		WHERE status = 'open' AND ends_at >= ? AND ends_at < ?
	`, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ending contracts: %w", err)
	}
	return count, nil
}

// CountPendingCheques counts pending cheques due before the given cutoff.
func (s *SQLiteStore) CountPendingCheques(ctx context.Context, dueBefore time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM cheques
		WHERE status = 'pending' AND due_date < ?
	`, formatTime(dueBefore)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending cheques: %w", err)
	}
	return count, nil
}

// CountPendingInstallments counts pending installments due before the cutoff.
func (s *SQLiteStore) CountPendingInstallments(ctx context.Context, dueBefore time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM installments
		WHERE status = 'pending' AND due_date < ?
	`, formatTime(dueBefore)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending installments: %w", err)
	}
	return count, nil
}
