package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/locauto/locauto/internal/types"
)

// --- Vehicles ---

const vehicleColumns = `id, registration, make, model, year, category, status,
	mileage_km, next_service_km, has_registration_card, created_at, updated_at`

// scanVehicle scans a row into a Vehicle.
func scanVehicle(scanner interface{ Scan(...any) error }) (*types.Vehicle, error) {
	var v types.Vehicle
	var year sql.NullInt64
	var nextServiceKm sql.NullInt64
	var hasCard int
	var createdAt, updatedAt string

	err := scanner.Scan(
		&v.ID,
		&v.Registration,
		&v.Make,
		&v.Model,
		&year,
		&v.Category,
		&v.Status,
		&v.MileageKm,
		&nextServiceKm,
		&hasCard,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if year.Valid {
		v.Year = int(year.Int64)
	}
	if nextServiceKm.Valid {
		km := nextServiceKm.Int64
		v.NextServiceKm = &km
	}
	v.HasRegistrationCard = hasCard != 0
	v.CreatedAt = parseTime(createdAt)
	v.UpdatedAt = parseTime(updatedAt)

	return &v, nil
}

// CreateVehicle stores a new vehicle.
func (s *SQLiteStore) CreateVehicle(ctx context.Context, nv types.NewVehicle) (*types.Vehicle, error) {
	now := time.Now().UTC()
	v := types.Vehicle{
		ID:                  newID(),
		Registration:        nv.Registration,
		Make:                nv.Make,
		Model:               nv.Model,
		Year:                nv.Year,
		Category:            nv.Category,
		Status:              types.VehicleAvailable,
		MileageKm:           nv.MileageKm,
		NextServiceKm:       nv.NextServiceKm,
		HasRegistrationCard: nv.HasRegistrationCard,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if v.Category == "" {
		v.Category = types.CategoryOwned
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vehicles (id, registration, make, model, year, category, status,
			mileage_km, next_service_km, has_registration_card, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.Registration, v.Make, v.Model, nullableInt(v.Year), v.Category, v.Status,
		v.MileageKm, nullableInt64Ptr(v.NextServiceKm), boolToInt(v.HasRegistrationCard),
		formatTime(v.CreatedAt), formatTime(v.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("registration %q: %w", v.Registration, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert vehicle: %w", err)
	}

	return &v, nil
}

// GetVehicle retrieves a vehicle by ID.
func (s *SQLiteStore) GetVehicle(ctx context.Context, id string) (*types.Vehicle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id)

	v, err := scanVehicle(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan vehicle: %w", err)
	}

	return v, nil
}

// ListVehicles returns all vehicles ordered by registration.
func (s *SQLiteStore) ListVehicles(ctx context.Context) ([]types.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles ORDER BY registration ASC`)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []types.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}

	return vehicles, rows.Err()
}

// UpdateVehicle updates all mutable vehicle fields.
func (s *SQLiteStore) UpdateVehicle(ctx context.Context, v types.Vehicle) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE vehicles
		SET registration = ?, make = ?, model = ?, year = ?, category = ?, status = ?,
			mileage_km = ?, next_service_km = ?, has_registration_card = ?, updated_at = ?
		WHERE id = ?
	`, v.Registration, v.Make, v.Model, nullableInt(v.Year), v.Category, v.Status,
		v.MileageKm, nullableInt64Ptr(v.NextServiceKm), boolToInt(v.HasRegistrationCard),
		formatTime(time.Now().UTC()), v.ID)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}

	return requireRow(result)
}

// DeleteVehicle removes a vehicle.
func (s *SQLiteStore) DeleteVehicle(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	return requireRow(result)
}

// --- Clients ---

// scanClient scans a row into a Client.
func scanClient(scanner interface{ Scan(...any) error }) (*types.Client, error) {
	var c types.Client
	var email, phone, license sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(&c.ID, &c.Name, &email, &phone, &license, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	c.Email = email.String
	c.Phone = phone.String
	c.LicenseNumber = license.String
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)

	return &c, nil
}

// CreateClient stores a new client.
func (s *SQLiteStore) CreateClient(ctx context.Context, nc types.NewClient) (*types.Client, error) {
	now := time.Now().UTC()
	c := types.Client{
		ID:            newID(),
		Name:          nc.Name,
		Email:         nc.Email,
		Phone:         nc.Phone,
		LicenseNumber: nc.LicenseNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, email, phone, license_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Email, c.Phone, c.LicenseNumber,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}

	return &c, nil
}

// GetClient retrieves a client by ID.
func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*types.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, license_number, created_at, updated_at
		FROM clients WHERE id = ?
	`, id)

	c, err := scanClient(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}

	return c, nil
}

// ListClients returns all clients ordered by name.
func (s *SQLiteStore) ListClients(ctx context.Context) ([]types.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, license_number, created_at, updated_at
		FROM clients ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var clients []types.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, *c)
	}

	return clients, rows.Err()
}

// UpdateClient updates all mutable client fields.
func (s *SQLiteStore) UpdateClient(ctx context.Context, c types.Client) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, email = ?, phone = ?, license_number = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.Email, c.Phone, c.LicenseNumber, formatTime(time.Now().UTC()), c.ID)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return requireRow(result)
}

// DeleteClient removes a client.
func (s *SQLiteStore) DeleteClient(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return requireRow(result)
}

// --- Contracts ---

// scanContract scans a row into a Contract.
func scanContract(scanner interface{ Scan(...any) error }) (*types.Contract, error) {
	var c types.Contract
	var startsAt, endsAt, createdAt, updatedAt string

	err := scanner.Scan(&c.ID, &c.VehicleID, &c.ClientID, &startsAt, &endsAt,
		&c.DailyRateCents, &c.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	c.StartsAt = parseTime(startsAt)
	c.EndsAt = parseTime(endsAt)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)

	return &c, nil
}

// CreateContract stores a new contract in the open state.
func (s *SQLiteStore) CreateContract(ctx context.Context, nc types.NewContract) (*types.Contract, error) {
	now := time.Now().UTC()
	c := types.Contract{
		ID:             newID(),
		VehicleID:      nc.VehicleID,
		ClientID:       nc.ClientID,
		StartsAt:       nc.StartsAt.UTC(),
		EndsAt:         nc.EndsAt.UTC(),
		DailyRateCents: nc.DailyRateCents,
		Status:         types.ContractOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contracts (id, vehicle_id, client_id, starts_at, ends_at,
			daily_rate_cents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.VehicleID, c.ClientID, formatTime(c.StartsAt), formatTime(c.EndsAt),
		c.DailyRateCents, c.Status, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("contract references: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("insert contract: %w", err)
	}

	return &c, nil
}

// GetContract retrieves a contract by ID.
func (s *SQLiteStore) GetContract(ctx context.Context, id string) (*types.Contract, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, vehicle_id, client_id, starts_at, ends_at, daily_rate_cents,
			status, created_at, updated_at
		FROM contracts WHERE id = ?
	`, id)

	c, err := scanContract(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan contract: %w", err)
	}

	return c, nil
}

// ListContracts returns all contracts ordered by start date, newest first.
func (s *SQLiteStore) ListContracts(ctx context.Context) ([]types.Contract, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vehicle_id, client_id, starts_at, ends_at, daily_rate_cents,
			status, created_at, updated_at
		FROM contracts ORDER BY starts_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []types.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		contracts = append(contracts, *c)
	}

	return contracts, rows.Err()
}

// UpdateContractStatus transitions a contract's lifecycle state.
func (s *SQLiteStore) UpdateContractStatus(ctx context.Context, id string, status types.ContractStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE contracts SET status = ?, updated_at = ? WHERE id = ?
	`, status, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("update contract status: %w", err)
	}
	return requireRow(result)
}

// DeleteContract removes a contract.
func (s *SQLiteStore) DeleteContract(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	return requireRow(result)
}

// --- shared helpers ---

// requireRow maps a zero-row result to ErrNotFound.
func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullableInt64Ptr(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports whether err is a SQLite FK constraint failure.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
