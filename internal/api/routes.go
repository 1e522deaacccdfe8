package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public: the offline client's connectivity monitor probes this.
		r.Get("/health", h.Health)

		// Tenant-scoped routes (API key + resolved active tenant)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))
			r.Use(TenantMiddleware(h.tenants))

			r.Get("/stats", h.Stats)

			r.Route("/vehicles", func(r chi.Router) {
				r.Get("/", h.ListVehicles)
				r.Post("/", h.CreateVehicle)
				r.Get("/{id}", h.GetVehicle)
				r.Put("/{id}", h.UpdateVehicle)
				r.Delete("/{id}", h.DeleteVehicle)
			})

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.ListClients)
				r.Post("/", h.CreateClient)
				r.Get("/{id}", h.GetClient)
				r.Put("/{id}", h.UpdateClient)
				r.Delete("/{id}", h.DeleteClient)
			})

			r.Route("/contracts", func(r chi.Router) {
				r.Get("/", h.ListContracts)
				r.Post("/", h.CreateContract)
				r.Get("/export", h.ExportContracts)
				r.Get("/{id}", h.GetContract)
				r.Put("/{id}/status", h.UpdateContractStatus)
				r.Delete("/{id}", h.DeleteContract)
			})

			// Generic write path used by offline sync replay
			r.Route("/data/{table}", func(r chi.Router) {
				r.Post("/", h.DataInsert)
				r.Put("/{key}", h.DataUpdate)
				r.Delete("/{key}", h.DataDelete)
			})

			r.Get("/alerts", h.GetAlerts)
			r.Post("/alerts/refresh", h.RefreshAlerts)
			r.Get("/settings/alerts", h.GetThresholds)
			r.Put("/settings/alerts", h.SetThresholds)

			r.Post("/documents/contracts/{id}", h.GenerateContractDocument)

			r.Route("/admin/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Delete("/{id}", h.DeleteUser)
			})
		})

		// Operator routes (separate admin key, no tenant scope)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.adminKey))

			r.Route("/operator/tenants", func(r chi.Router) {
				r.Get("/", h.ListTenants)
				r.Post("/", h.CreateTenant)
				r.Put("/{id}/status", h.SetTenantStatus)
				r.Put("/{id}/plan", h.SetTenantPlan)
				r.Delete("/{id}", h.DeleteTenant)
			})
		})
	})

	return r
}
