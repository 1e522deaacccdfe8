package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/locauto/locauto/internal/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStore_NewSQLiteStore(t *testing.T) {
	db, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
}

func TestStore_VehicleLifecycle(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	km := int64(95000)
	created, err := db.CreateVehicle(ctx, types.NewVehicle{
		Registration:        "1234-A-56",
		Make:                "Dacia",
		Model:               "Logan",
		Year:                2021,
		Category:            types.CategoryOwned,
		MileageKm:           90000,
		NextServiceKm:       &km,
		HasRegistrationCard: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Error("expected ID to be set")
	}
	if created.Status != types.VehicleAvailable {
		t.Errorf("status = %q, want available", created.Status)
	}

	got, err := db.GetVehicle(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Registration != "1234-A-56" {
		t.Errorf("registration = %q, want 1234-A-56", got.Registration)
	}
	if got.NextServiceKm == nil || *got.NextServiceKm != 95000 {
		t.Errorf("next_service_km = %v, want 95000", got.NextServiceKm)
	}
	if !got.HasRegistrationCard {
		t.Error("has_registration_card lost on round trip")
	}

	got.MileageKm = 91500
	got.Status = types.VehicleRented
	if err := db.UpdateVehicle(ctx, *got); err != nil {
		t.Fatal(err)
	}
	updated, err := db.GetVehicle(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.MileageKm != 91500 || updated.Status != types.VehicleRented {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := db.DeleteVehicle(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetVehicle(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
}

func TestStore_VehicleDuplicateRegistration(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	nv := types.NewVehicle{Registration: "1234-A-56", Make: "Dacia", Model: "Logan"}
	if _, err := db.CreateVehicle(ctx, nv); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateVehicle(ctx, nv); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate registration = %v, want ErrDuplicate", err)
	}
}

func TestStore_VehicleDefaultsToOwned(t *testing.T) {
	db := newTestStore(t)

	v, err := db.CreateVehicle(context.Background(), types.NewVehicle{
		Registration: "5678-B-12", Make: "Renault", Model: "Clio",
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.Category != types.CategoryOwned {
		t.Errorf("category = %q, want owned", v.Category)
	}
}

func TestStore_ListVehiclesOrderedByRegistration(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	for _, reg := range []string{"9999-Z-99", "1111-A-11", "5555-M-55"} {
		if _, err := db.CreateVehicle(ctx, types.NewVehicle{
			Registration: reg, Make: "Dacia", Model: "Logan",
		}); err != nil {
			t.Fatal(err)
		}
	}

	vehicles, err := db.ListVehicles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(vehicles) != 3 {
		t.Fatalf("len = %d, want 3", len(vehicles))
	}
	if vehicles[0].Registration != "1111-A-11" || vehicles[2].Registration != "9999-Z-99" {
		t.Errorf("unexpected order: %q, %q, %q",
			vehicles[0].Registration, vehicles[1].Registration, vehicles[2].Registration)
	}
}

func TestStore_ClientLifecycle(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	created, err := db.CreateClient(ctx, types.NewClient{
		Name:          "Amina Saidi",
		Email:         "amina@example.com",
		LicenseNumber: "DL-4411",
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.GetClient(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "amina@example.com" || got.LicenseNumber != "DL-4411" {
		t.Errorf("round trip lost fields: %+v", got)
	}

	got.Phone = "+212600000000"
	if err := db.UpdateClient(ctx, *got); err != nil {
		t.Fatal(err)
	}
	updated, _ := db.GetClient(ctx, created.ID)
	if updated.Phone != "+212600000000" {
		t.Errorf("phone = %q after update", updated.Phone)
	}

	if err := db.DeleteClient(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteClient(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestStore_ContractLifecycle(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	vehicle, err := db.CreateVehicle(ctx, types.NewVehicle{
		Registration: "1234-A-56", Make: "Dacia", Model: "Logan",
	})
	if err != nil {
		t.Fatal(err)
	}
	client, err := db.CreateClient(ctx, types.NewClient{Name: "Amina Saidi"})
	if err != nil {
		t.Fatal(err)
	}

	starts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	contract, err := db.CreateContract(ctx, types.NewContract{
		VehicleID:      vehicle.ID,
		ClientID:       client.ID,
		StartsAt:       starts,
		EndsAt:         starts.AddDate(0, 0, 7),
		DailyRateCents: 35000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if contract.Status != types.ContractOpen {
		t.Errorf("status = %q, want open", contract.Status)
	}

	got, err := db.GetContract(ctx, contract.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.StartsAt.Equal(starts) {
		t.Errorf("starts_at = %v, want %v", got.StartsAt, starts)
	}

	if err := db.UpdateContractStatus(ctx, contract.ID, types.ContractClosed); err != nil {
		t.Fatal(err)
	}
	closed, _ := db.GetContract(ctx, contract.ID)
	if closed.Status != types.ContractClosed {
		t.Errorf("status = %q, want closed", closed.Status)
	}

	if err := db.DeleteContract(ctx, contract.ID); err != nil {
		t.Fatal(err)
	}
}

func TestStore_ContractRequiresExistingRows(t *testing.T) {
	db := newTestStore(t)

	_, err := db.CreateContract(context.Background(), types.NewContract{
		VehicleID:      "no-such-vehicle",
		ClientID:       "no-such-client",
		StartsAt:       time.Now(),
		EndsAt:         time.Now().AddDate(0, 0, 1),
		DailyRateCents: 10000,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("create with dangling references = %v, want ErrNotFound", err)
	}
}

func TestStore_GetStats(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	if _, err := db.CreateVehicle(ctx, types.NewVehicle{
		Registration: "1234-A-56", Make: "Dacia", Model: "Logan",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateClient(ctx, types.NewClient{Name: "Amina Saidi"}); err != nil {
		t.Fatal(err)
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.VehicleCount != 1 || stats.ClientCount != 1 || stats.ContractCount != 0 {
		t.Errorf("stats = %+v, want 1 vehicle, 1 client, 0 contracts", stats)
	}
}
