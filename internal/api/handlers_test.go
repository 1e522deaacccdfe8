package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/locauto/locauto/internal/alerts"
	"github.com/locauto/locauto/internal/documents"
	"github.com/locauto/locauto/internal/tenant"
	"github.com/locauto/locauto/internal/types"
)

const (
	testAPIKey   = "test-api-key-12345"
	testAdminKey = "test-admin-key-67890"
	testTenant   = "agency-1"
)

// stubRenderer satisfies documents.Renderer without a render service.
type stubRenderer struct {
	pdf []byte
	err error
}

func (s *stubRenderer) Render(ctx context.Context, template string, payload any) ([]byte, error) {
	return s.pdf, s.err
}

// newTestRouter builds a full router over a throwaway tenant directory
// with one active tenant provisioned.
func newTestRouter(t *testing.T) (*chi.Mux, *tenant.Manager) {
	t.Helper()

	manager, err := tenant.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("create tenant manager: %v", err)
	}
	t.Cleanup(func() { manager.Close() })

	if _, err := manager.Create(context.Background(), testTenant, "Test Agency"); err != nil {
		t.Fatalf("create tenant: %v", err)
	}

	docs := documents.NewService(&stubRenderer{pdf: []byte("%PDF")}, &documents.NoopStorage{})
	registry := alerts.NewRegistry(5 * time.Minute)
	h := NewHandler(manager, registry, docs, testAPIKey, testAdminKey, "test")
	return NewRouter(h), manager
}

// doRequest performs an authenticated tenant-scoped request.
func doRequest(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set(TenantHeader, testTenant)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

// --- Health ---

func TestHealth_NoAuthRequired(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeBody[types.HealthResponse](t, rec)
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
}

// --- Auth and tenant middleware ---

func TestAuth_MissingKey(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	req.Header.Set(TenantHeader, testTenant)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content-type = %q, want application/problem+json", ct)
	}
}

func TestAuth_WrongKey(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	req.Header.Set(TenantHeader, testTenant)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestTenant_MissingHeader(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTenant_Unknown(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/vehicles", nil, map[string]string{
		TenantHeader: "no-such-agency",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTenant_SuspendedBlocked(t *testing.T) {
	router, manager := newTestRouter(t)

	if err := manager.SetStatus(context.Background(), testTenant, tenant.StatusSuspended); err != nil {
		t.Fatalf("suspend tenant: %v", err)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/vehicles", nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	var body struct {
		TenantStatus string `json:"tenant_status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if body.TenantStatus != string(tenant.StatusSuspended) {
		t.Errorf("tenant_status = %q, want suspended", body.TenantStatus)
	}
}

func TestTenant_PendingPaymentBlocked(t *testing.T) {
	router, manager := newTestRouter(t)

	if err := manager.SetStatus(context.Background(), testTenant, tenant.StatusPendingPayment); err != nil {
		t.Fatalf("set status: %v", err)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/alerts", nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// --- Fleet CRUD ---

func createTestVehicle(t *testing.T, router http.Handler) types.Vehicle {
	t.Helper()
	next := int64(50000)
	rec := doRequest(t, router, http.MethodPost, "/api/v1/vehicles", types.NewVehicle{
		Registration:        "1234-A-7",
		Make:                "Dacia",
		Model:               "Logan",
		Category:            types.CategoryOwned,
		MileageKm:           12000,
		NextServiceKm:       &next,
		HasRegistrationCard: true,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create vehicle: status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[types.Vehicle](t, rec)
}

func TestVehicleCRUD(t *testing.T) {
	router, _ := newTestRouter(t)

	vehicle := createTestVehicle(t, router)
	if vehicle.ID == "" {
		t.Fatal("expected generated vehicle ID")
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/vehicles/"+vehicle.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get vehicle: status = %d", rec.Code)
	}
	got := decodeBody[types.Vehicle](t, rec)
	if got.Registration != "1234-A-7" {
		t.Errorf("registration = %q", got.Registration)
	}

	got.MileageKm = 13000
	rec = doRequest(t, router, http.MethodPut, "/api/v1/vehicles/"+vehicle.ID, got, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update vehicle: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/vehicles/"+vehicle.ID, nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete vehicle: status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/vehicles/"+vehicle.ID, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted vehicle: status = %d, want 404", rec.Code)
	}
}

func TestCreateVehicle_ValidationErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/vehicles", types.NewVehicle{
		Category: "hovercraft",
	}, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var body ProblemWithErrors
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if len(body.Errors) == 0 {
		t.Error("expected field errors in problem response")
	}
}

func TestContractLifecycleAndExport(t *testing.T) {
	router, _ := newTestRouter(t)

	vehicle := createTestVehicle(t, router)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/clients", types.NewClient{Name: "Amina Berrada"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client: status = %d", rec.Code)
	}
	client := decodeBody[types.Client](t, rec)

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rec = doRequest(t, router, http.MethodPost, "/api/v1/contracts", types.NewContract{
		VehicleID:      vehicle.ID,
		ClientID:       client.ID,
		StartsAt:       start,
		EndsAt:         start.AddDate(0, 0, 7),
		DailyRateCents: 35000,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create contract: status = %d, body %s", rec.Code, rec.Body.String())
	}
	contract := decodeBody[types.Contract](t, rec)
	if contract.Status != types.ContractOpen {
		t.Errorf("new contract status = %q, want open", contract.Status)
	}

	rec = doRequest(t, router, http.MethodPut, "/api/v1/contracts/"+contract.ID+"/status",
		map[string]string{"status": "closed"}, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("close contract: status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/contracts/export", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content-type = %q, want text/csv", ct)
	}
	if !strings.Contains(rec.Body.String(), contract.ID) {
		t.Error("export missing contract row")
	}
	if !strings.Contains(rec.Body.String(), "closed") {
		t.Error("export missing updated status")
	}
}

// --- Generic data path ---

func TestDataPath(t *testing.T) {
	router, _ := newTestRouter(t)

	vehicle := createTestVehicle(t, router)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/data/insurances", map[string]any{
		"id":         "ins-1",
		"vehicle_id": vehicle.ID,
		"issuer":     "AtlasSur",
		"issued_at":  "2025-01-01T00:00:00Z",
		"expires_at": "2026-01-01T00:00:00Z",
		"created_at": "2025-01-01T00:00:00Z",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("insert: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodPut, "/api/v1/data/insurances/ins-1", map[string]any{
		"issuer": "Wafa",
	}, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/data/insurances/ins-1", nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Deleting a row that no longer exists is a 404.
	rec = doRequest(t, router, http.MethodDelete, "/api/v1/data/insurances/ins-1", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
}

func TestDataPath_UnknownTable(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/data/secrets", map[string]any{"id": "x"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDataPath_UnknownColumnRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/data/expenses", map[string]any{
		"id":               "e-1",
		"label":            "tires",
		"amount_cents":     4000,
		"incurred_at":      "2025-01-01T00:00:00Z",
		"created_at":       "2025-01-01T00:00:00Z",
		"drop table users": "x",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// --- Alerts ---

func TestAlertsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	// Vehicle with carte grise and a far service target, but no
	// insurance, inspection or vignette records.
	createTestVehicle(t, router)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/alerts", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	snap := decodeBody[types.AlertSnapshot](t, rec)
	if snap.Total != 3 {
		t.Errorf("total = %d, want 3 (missing insurance, inspection, vignette): %v", snap.Total, snap.ByDimension)
	}
}

func TestThresholdSettings(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/settings/alerts", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get thresholds: status = %d", rec.Code)
	}
	defaults := decodeBody[types.AlertThresholds](t, rec)
	if defaults.InsuranceDays != types.DefaultThresholdDays {
		t.Errorf("default insurance_days = %d, want %d", defaults.InsuranceDays, types.DefaultThresholdDays)
	}

	rec = doRequest(t, router, http.MethodPut, "/api/v1/settings/alerts", types.AlertThresholds{
		InsuranceDays: 45,
	}, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set thresholds: status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/settings/alerts", nil, nil)
	updated := decodeBody[types.AlertThresholds](t, rec)
	if updated.InsuranceDays != 45 {
		t.Errorf("insurance_days = %d, want 45", updated.InsuranceDays)
	}
}

// --- Documents ---

func TestDocumentGeneration_RequiresPremium(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/documents/contracts/any", nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for standard plan", rec.Code)
	}
}

func TestDocumentGeneration_StorageNotConfigured(t *testing.T) {
	router, manager := newTestRouter(t)

	if err := manager.SetPlan(context.Background(), testTenant, tenant.PlanPremium); err != nil {
		t.Fatalf("set plan: %v", err)
	}

	vehicle := createTestVehicle(t, router)
	rec := doRequest(t, router, http.MethodPost, "/api/v1/clients", types.NewClient{Name: "Driss"}, nil)
	client := decodeBody[types.Client](t, rec)

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rec = doRequest(t, router, http.MethodPost, "/api/v1/contracts", types.NewContract{
		VehicleID: vehicle.ID,
		ClientID:  client.ID,
		StartsAt:  start,
		EndsAt:    start.AddDate(0, 0, 3),
	}, nil)
	contract := decodeBody[types.Contract](t, rec)

	// NoopStorage in the test fixture: rendering succeeds but storage
	// reports not configured.
	rec = doRequest(t, router, http.MethodPost, "/api/v1/documents/contracts/"+contract.ID, nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503, body %s", rec.Code, rec.Body.String())
	}
}

// --- Users ---

func TestUserProvisioning(t *testing.T) {
	router, _ := newTestRouter(t)

	// Bootstrap: first account may be created without an actor.
	rec := doRequest(t, router, http.MethodPost, "/api/v1/admin/users", types.NewUser{
		Email:    "owner@agency.example",
		Password: "very secret password",
		Name:     "Owner",
		Role:     types.RoleAdmin,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("bootstrap user: status = %d, body %s", rec.Code, rec.Body.String())
	}
	owner := decodeBody[types.User](t, rec)
	if strings.Contains(rec.Body.String(), "very secret password") {
		t.Error("response must not leak the password")
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("response must not leak the password hash")
	}

	// Second creation without actor is rejected.
	rec = doRequest(t, router, http.MethodPost, "/api/v1/admin/users", types.NewUser{
		Email:    "agent@agency.example",
		Password: "another password",
		Name:     "Agent",
	}, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("actorless create after bootstrap: status = %d, want 403", rec.Code)
	}

	// Admin actor may create agents.
	rec = doRequest(t, router, http.MethodPost, "/api/v1/admin/users", types.NewUser{
		Email:    "agent@agency.example",
		Password: "another password",
		Name:     "Agent",
	}, map[string]string{ActorHeader: owner.Email})
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: status = %d, body %s", rec.Code, rec.Body.String())
	}
	agent := decodeBody[types.User](t, rec)
	if agent.Role != types.RoleAgent {
		t.Errorf("default role = %q, want agent", agent.Role)
	}

	// Agents may not provision users.
	rec = doRequest(t, router, http.MethodPost, "/api/v1/admin/users", types.NewUser{
		Email:    "third@agency.example",
		Password: "password three",
		Name:     "Third",
	}, map[string]string{ActorHeader: agent.Email})
	if rec.Code != http.StatusForbidden {
		t.Errorf("agent create: status = %d, want 403", rec.Code)
	}

	// Duplicate email conflicts.
	rec = doRequest(t, router, http.MethodPost, "/api/v1/admin/users", types.NewUser{
		Email:    "agent@agency.example",
		Password: "password dup",
		Name:     "Dup",
	}, map[string]string{ActorHeader: owner.Email})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: status = %d, want 409", rec.Code)
	}

	// Delete.
	rec = doRequest(t, router, http.MethodDelete, "/api/v1/admin/users/"+agent.ID, nil,
		map[string]string{ActorHeader: owner.Email})
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete user: status = %d", rec.Code)
	}
}

// --- Operator tenant administration ---

func operatorRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestOperatorTenantLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := operatorRequest(t, router, http.MethodPost, "/api/v1/operator/tenants", map[string]string{
		"id":   "agency-2",
		"name": "Second Agency",
		"plan": "premium",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create tenant: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = operatorRequest(t, router, http.MethodGet, "/api/v1/operator/tenants", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list tenants: status = %d", rec.Code)
	}
	infos := decodeBody[[]tenant.Info](t, rec)
	if len(infos) != 2 {
		t.Fatalf("tenant count = %d, want 2", len(infos))
	}

	rec = operatorRequest(t, router, http.MethodPut, "/api/v1/operator/tenants/agency-2/status",
		map[string]string{"status": "pending_verification"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set status: status = %d", rec.Code)
	}

	rec = operatorRequest(t, router, http.MethodDelete, "/api/v1/operator/tenants/agency-2", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete tenant: status = %d", rec.Code)
	}

	rec = operatorRequest(t, router, http.MethodDelete, "/api/v1/operator/tenants/agency-2", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing tenant: status = %d, want 404", rec.Code)
	}
}

func TestOperatorRoutes_RejectTenantKey(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/operator/tenants", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
