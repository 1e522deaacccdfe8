package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// syncTable describes a table reachable through the generic sync write path.
// Columns not listed here are rejected, which keeps the dynamically built
// SQL safe against identifier injection from queued payloads.
type syncTable struct {
	keyField string
	columns  map[string]bool
}

// syncTables is the allow-list of tables the offline queue may target.
var syncTables = map[string]syncTable{
	"vehicles": {
		keyField: "id",
		columns: columnSet("id", "registration", "make", "model", "year",
			"category", "status", "mileage_km", "next_service_km",
			"has_registration_card", "created_at", "updated_at"),
	},
	"clients": {
		keyField: "id",
		columns: columnSet("id", "name", "email", "phone", "license_number",
			"created_at", "updated_at"),
	},
	"contracts": {
		keyField: "id",
		columns: columnSet("id", "vehicle_id", "client_id", "starts_at", "ends_at",
			"daily_rate_cents", "status", "created_at", "updated_at"),
	},
	"insurances": {
		keyField: "id",
		columns: columnSet("id", "vehicle_id", "issuer", "reference",
			"issued_at", "expires_at", "created_at"),
	},
	"inspections": {
		keyField: "id",
		columns: columnSet("id", "vehicle_id", "issuer", "reference",
			"issued_at", "expires_at", "created_at"),
	},
	"vignettes": {
		keyField: "id",
		columns: columnSet("id", "vehicle_id", "issuer", "reference",
			"issued_at", "expires_at", "created_at"),
	},
	"expenses": {
		keyField: "id",
		columns: columnSet("id", "vehicle_id", "label", "category",
			"amount_cents", "incurred_at", "created_at"),
	},
	"cheques": {
		keyField: "id",
		columns: columnSet("id", "client_id", "number", "amount_cents",
			"due_date", "status", "created_at"),
	},
	"installments": {
		keyField: "id",
		columns: columnSet("id", "contract_id", "amount_cents", "due_date",
			"status", "created_at"),
	},
}

func columnSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// SyncTableKeyField returns the key field for an allow-listed table.
func SyncTableKeyField(table string) (string, bool) {
	t, ok := syncTables[table]
	if !ok {
		return "", false
	}
	return t.keyField, true
}

// ApplyOperation executes a queued write against the tenant database.
// The operation's key field is honored as declared at enqueue time; a
// payload missing its key for UPDATE/DELETE is rejected, not guessed.
func (s *SQLiteStore) ApplyOperation(ctx context.Context, op SyncOperation) error {
	table, ok := syncTables[op.Table]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, op.Table)
	}

	keyField := op.KeyField
	if keyField == "" {
		keyField = table.keyField
	}
	if !table.columns[keyField] {
		return fmt.Errorf("%w: key field %q", ErrUnknownColumn, keyField)
	}

	var payload map[string]any
	if err := json.Unmarshal(op.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	// Deterministic column order keeps generated SQL stable for tests.
	fields := make([]string, 0, len(payload))
	for name := range payload {
		if !table.columns[name] {
			return fmt.Errorf("%w: %q in table %q", ErrUnknownColumn, name, op.Table)
		}
		fields = append(fields, name)
	}
	sort.Strings(fields)

	switch op.Operation {
	case OpInsert:
		return s.applyInsert(ctx, op.Table, fields, payload)
	case OpUpdate:
		return s.applyUpdate(ctx, op.Table, keyField, fields, payload)
	case OpDelete:
		return s.applyDelete(ctx, op.Table, keyField, payload)
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidPayload, op.Operation)
	}
}

func (s *SQLiteStore) applyInsert(ctx context.Context, table string, fields []string, payload map[string]any) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty insert payload", ErrInvalidPayload)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(fields, ", "), placeholders)

	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = payload[f]
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s: %w", table, ErrDuplicate)
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) applyUpdate(ctx context.Context, table, keyField string, fields []string, payload map[string]any) error {
	key, ok := payload[keyField]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingKey, keyField)
	}

	var sets []string
	var args []any
	for _, f := range fields {
		if f == keyField {
			continue
		}
		sets = append(sets, f+" = ?")
		args = append(args, payload[f])
	}
	if len(sets) == 0 {
		return fmt.Errorf("%w: update payload has no non-key fields", ErrInvalidPayload)
	}
	args = append(args, key)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		table, strings.Join(sets, ", "), keyField)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return requireRow(result)
}

func (s *SQLiteStore) applyDelete(ctx context.Context, table, keyField string, payload map[string]any) error {
	key, ok := payload[keyField]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingKey, keyField)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, keyField)

	result, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return requireRow(result)
}
