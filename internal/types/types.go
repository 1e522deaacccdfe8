package types

import (
	"encoding/json"
	"time"
)

// VehicleCategory classifies how a vehicle is held by the agency.
type VehicleCategory string

const (
	// CategoryOwned is a vehicle owned outright by the agency.
	CategoryOwned VehicleCategory = "owned"
	// CategoryLeased is a vehicle held under a leasing contract.
	CategoryLeased VehicleCategory = "leased"
	// CategorySubLease is a vehicle sub-leased from another agency.
	// Sub-leased vehicles are exempt from document alerts: the owning
	// agency is responsible for their paperwork.
	CategorySubLease VehicleCategory = "sub_lease"
)

// VehicleStatus represents the operational state of a vehicle.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleRented      VehicleStatus = "rented"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleRetired     VehicleStatus = "retired"
)

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID                  string          `json:"id"`
	Registration        string          `json:"registration"`
	Make                string          `json:"make"`
	Model               string          `json:"model"`
	Year                int             `json:"year,omitempty"`
	Category            VehicleCategory `json:"category"`
	Status              VehicleStatus   `json:"status"`
	MileageKm           int64           `json:"mileage_km"`
	NextServiceKm       *int64          `json:"next_service_km,omitempty"`
	HasRegistrationCard bool            `json:"has_registration_card"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewVehicle is the input type for creating a vehicle (without generated fields).
type NewVehicle struct {
	Registration        string          `json:"registration"`
	Make                string          `json:"make"`
	Model               string          `json:"model"`
	Year                int             `json:"year,omitempty"`
	Category            VehicleCategory `json:"category"`
	MileageKm           int64           `json:"mileage_km"`
	NextServiceKm       *int64          `json:"next_service_km,omitempty"`
	HasRegistrationCard bool            `json:"has_registration_card"`
}

// Client represents a rental customer.
type Client struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	LicenseNumber string    `json:"license_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewClient is the input type for creating a client.
type NewClient struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
}

// ContractStatus represents the lifecycle state of a rental contract.
type ContractStatus string

const (
	ContractOpen      ContractStatus = "open"
	ContractClosed    ContractStatus = "closed"
	ContractCancelled ContractStatus = "cancelled"
)

// Contract represents a rental agreement between a client and a vehicle.
type Contract struct {
	ID             string         `json:"id"`
	VehicleID      string         `json:"vehicle_id"`
	ClientID       string         `json:"client_id"`
	StartsAt       time.Time      `json:"starts_at"`
	EndsAt         time.Time      `json:"ends_at"`
	DailyRateCents int64          `json:"daily_rate_cents"`
	Status         ContractStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewContract is the input type for creating a contract.
type NewContract struct {
	VehicleID      string    `json:"vehicle_id"`
	ClientID       string    `json:"client_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	DailyRateCents int64     `json:"daily_rate_cents"`
}

// ExpiryRecord represents a dated compliance document attached to a vehicle:
// an insurance policy, a technical inspection, or a vignette. Multiple
// historical rows may exist per vehicle; only the most recent expiry matters
// for alerting.
type ExpiryRecord struct {
	ID        string    `json:"id"`
	VehicleID string    `json:"vehicle_id"`
	Issuer    string    `json:"issuer,omitempty"`
	Reference string    `json:"reference,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expense represents an operating expense, optionally tied to a vehicle.
type Expense struct {
	ID          string    `json:"id"`
	VehicleID   string    `json:"vehicle_id,omitempty"`
	Label       string    `json:"label"`
	Category    string    `json:"category,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	IncurredAt  time.Time `json:"incurred_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentStatus represents the settlement state of a cheque or installment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSettled PaymentStatus = "settled"
	PaymentBounced PaymentStatus = "bounced"
)

// Cheque represents a client cheque held until its due date.
type Cheque struct {
	ID          string        `json:"id"`
	ClientID    string        `json:"client_id"`
	Number      string        `json:"number"`
	AmountCents int64         `json:"amount_cents"`
	DueDate     time.Time     `json:"due_date"`
	Status      PaymentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Installment represents a scheduled partial payment on a contract.
type Installment struct {
	ID          string        `json:"id"`
	ContractID  string        `json:"contract_id"`
	AmountCents int64         `json:"amount_cents"`
	DueDate     time.Time     `json:"due_date"`
	Status      PaymentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// UserRole controls what a tenant user may do.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleAgent UserRole = "agent"
)

// User represents a tenant user account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         UserRole  `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser is the input type for provisioning a user.
type NewUser struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
}

// AlertThresholds holds per-tenant day counts controlling when a document
// expiry starts raising alerts. Zero values fall back to defaults.
type AlertThresholds struct {
	InsuranceDays   int `json:"insurance_days" yaml:"insurance_days"`
	InspectionDays  int `json:"inspection_days" yaml:"inspection_days"`
	VignetteDays    int `json:"vignette_days" yaml:"vignette_days"`
	ChequeDays      int `json:"cheque_days" yaml:"cheque_days"`
	InstallmentDays int `json:"installment_days" yaml:"installment_days"`
}

// DefaultThresholdDays is the fallback for any unset alert threshold.
const DefaultThresholdDays = 30

// Normalized returns a copy with defaults applied to unset fields.
func (t AlertThresholds) Normalized() AlertThresholds {
	if t.InsuranceDays <= 0 {
		t.InsuranceDays = DefaultThresholdDays
	}
	if t.InspectionDays <= 0 {
		t.InspectionDays = DefaultThresholdDays
	}
	if t.VignetteDays <= 0 {
		t.VignetteDays = DefaultThresholdDays
	}
	if t.ChequeDays <= 0 {
		t.ChequeDays = DefaultThresholdDays
	}
	if t.InstallmentDays <= 0 {
		t.InstallmentDays = DefaultThresholdDays
	}
	return t
}

// AlertSnapshot is the transient result of an alert aggregation pass.
// It is held in memory only and invalidated after the cache window.
type AlertSnapshot struct {
	Total       int            `json:"total"`
	ByDimension map[string]int `json:"by_dimension"`
	ComputedAt  time.Time      `json:"computed_at"`
}

// MarshalJSON ensures a nil dimension map marshals as {} not null.
func (s AlertSnapshot) MarshalJSON() ([]byte, error) {
	if s.ByDimension == nil {
		s.ByDimension = map[string]int{}
	}
	type Alias AlertSnapshot
	return json.Marshal(Alias(s))
}

// GeneratedDocument records a rendered PDF stored in object storage.
type GeneratedDocument struct {
	ID         string    `json:"id"`
	ContractID string    `json:"contract_id"`
	FileName   string    `json:"file_name"`
	ObjectKey  string    `json:"object_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentResponse is returned by the document generation endpoint.
type DocumentResponse struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// StoreStats holds aggregate per-tenant statistics.
type StoreStats struct {
	VehicleCount  int64 `json:"vehicle_count"`
	ClientCount   int64 `json:"client_count"`
	ContractCount int64 `json:"contract_count"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
