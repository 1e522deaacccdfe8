package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/locauto/locauto/internal/types"
)

// settingsKeyThresholds is the settings row holding alert thresholds.
const settingsKeyThresholds = "alert_thresholds"

// CreateUser provisions a user account with a pre-hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, nu types.NewUser, passwordHash string) (*types.User, error) {
	now := time.Now().UTC()
	u := types.User{
		ID:           newID(),
		Email:        nu.Email,
		Name:         nu.Name,
		Role:         nu.Role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	if u.Role == "" {
		u.Role = types.RoleAgent
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, u.Role, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email %q: %w", u.Email, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &u, nil
}

// GetUserByEmail retrieves a user by email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var u types.User
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, password_hash, created_at
		FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// ListUsers returns all user accounts ordered by creation time.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, name, role, password_hash, created_at
		FROM users ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var u types.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt = parseTime(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user account.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(result)
}

// GetAlertThresholds loads the tenant's alert thresholds.
// Missing settings yield the zero value; callers apply defaults.
func (s *SQLiteStore) GetAlertThresholds(ctx context.Context) (types.AlertThresholds, error) {
	var t types.AlertThresholds
	var raw string

	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingsKeyThresholds).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return t, nil
		}
		return t, fmt.Errorf("load thresholds: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return t, fmt.Errorf("parse thresholds: %w", err)
	}
	return t, nil
}

// SetAlertThresholds stores the tenant's alert thresholds.
func (s *SQLiteStore) SetAlertThresholds(ctx context.Context, t types.AlertThresholds) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, settingsKeyThresholds, string(raw))
	if err != nil {
		return fmt.Errorf("store thresholds: %w", err)
	}
	return nil
}

// RecordDocument stores metadata for a generated PDF.
func (s *SQLiteStore) RecordDocument(ctx context.Context, doc types.GeneratedDocument) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, contract_id, file_name, object_key, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, doc.ContractID, doc.FileName, doc.ObjectKey, formatTime(doc.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}
