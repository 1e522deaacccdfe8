package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/locauto/locauto/internal/types"
)

// Operation names accepted by the generic sync write path.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// SyncOperation is a single queued write replayed against a tenant store.
// KeyField names the payload field holding the target row's primary key;
// it is carried explicitly rather than assuming a column named "id".
type SyncOperation struct {
	Table     string          `json:"table"`
	Operation string          `json:"operation"`
	KeyField  string          `json:"key_field"`
	Payload   json.RawMessage `json:"payload"`
}

// Store defines the contract for all tenant data operations.
type Store interface {
	// Vehicles
	CreateVehicle(ctx context.Context, v types.NewVehicle) (*types.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*types.Vehicle, error)
	ListVehicles(ctx context.Context) ([]types.Vehicle, error)
	UpdateVehicle(ctx context.Context, v types.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error

	// Clients
	CreateClient(ctx context.Context, c types.NewClient) (*types.Client, error)
	GetClient(ctx context.Context, id string) (*types.Client, error)
	ListClients(ctx context.Context) ([]types.Client, error)
	UpdateClient(ctx context.Context, c types.Client) error
	DeleteClient(ctx context.Context, id string) error

	// Contracts
	CreateContract(ctx context.Context, c types.NewContract) (*types.Contract, error)
	GetContract(ctx context.Context, id string) (*types.Contract, error)
	ListContracts(ctx context.Context) ([]types.Contract, error)
	UpdateContractStatus(ctx context.Context, id string, status types.ContractStatus) error
	DeleteContract(ctx context.Context, id string) error

	// ApplyOperation executes a generic queued write (offline sync replay).
	ApplyOperation(ctx context.Context, op SyncOperation) error

	// Alert reads. LatestExpiries reduces historical rows to the single
	// most-recent expiry per vehicle for the given record table.
	LatestExpiries(ctx context.Context, table string) (map[string]time.Time, error)
	CountContractsStarting(ctx context.Context, day time.Time) (int, error)
	CountContractsEnding(ctx context.Context, day time.Time) (int, error)
	CountPendingCheques(ctx context.Context, dueBefore time.Time) (int, error)
	CountPendingInstallments(ctx context.Context, dueBefore time.Time) (int, error)

	// Settings
	GetAlertThresholds(ctx context.Context) (types.AlertThresholds, error)
	SetAlertThresholds(ctx context.Context, t types.AlertThresholds) error

	// Users
	CreateUser(ctx context.Context, u types.NewUser, passwordHash string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	ListUsers(ctx context.Context) ([]types.User, error)
	DeleteUser(ctx context.Context, id string) error

	// Documents
	RecordDocument(ctx context.Context, doc types.GeneratedDocument) error

	GetStats(ctx context.Context) (*types.StoreStats, error)
	Close() error
}
