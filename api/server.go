/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/employees/*   Directory, balances, per-employee history
  /api/types/*       Leave type catalogue
  /api/calendar/*    Working-day queries
  /api/holidays/*    Non-working day configuration
  /api/requests/*    Leave request workflow
  /api/schedules/*   Leave schedule workflow

SECURITY NOTE:
  Identity arrives via X-Actor-ID / X-Admin headers; there is no
  authentication middleware. Put a session or token layer in front before
  exposing this beyond a trusted network.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-ID", "X-Admin"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/balance", h.GetBalance)
			r.Post("/{id}/balance", h.GrantBalance)
			r.Get("/{id}/requests", h.GetEmployeeRequests)
			r.Get("/{id}/schedules", h.GetEmployeeSchedules)
		})

		// Leave type routes
		r.Route("/types", func(r chi.Router) {
			r.Get("/", h.ListTypes)
			r.Post("/", h.CreateType)
		})

		// Calendar routes
		r.Get("/calendar/working-days", h.GetWorkingDays)
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/", h.DeleteHoliday)
		})

		// Leave request workflow
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.SubmitRequest)
			r.Post("/drafts", h.SaveDraft)
			r.Get("/pending", h.ListPendingRequests)
			r.Get("/{id}", h.GetRequest)
			r.Get("/{id}/audit", h.GetRequestAudit)
			r.Post("/{id}/submit", h.SubmitDraft)
			r.Post("/{id}/approve", h.ApproveRequest)
			r.Post("/{id}/reject", h.RejectRequest)
			r.Post("/{id}/withdraw", h.WithdrawRequest)
		})

		// Leave schedule workflow
		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", h.CreateSchedule)
			r.Get("/{id}", h.GetSchedule)
			r.Post("/{id}/approve", h.ApproveSchedule)
			r.Post("/{id}/register", h.RegisterSchedule)
			r.Put("/{id}", h.EditSchedule)
			r.Delete("/{id}", h.DeleteSchedule)
		})
	})

	return r
}
