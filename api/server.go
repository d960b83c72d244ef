/*
server.go - HTTP router and middleware configuration

ROUTER: chi

MIDDLEWARE STACK:
  1. RequestID:  unique ID per request for tracing
  2. Logger:     request logging
  3. Recoverer:  panic recovery (500 instead of crash)
  4. CORS:       cross-origin requests from the configured frontends

ROUTE GROUPS:
  /api/employees/*   period resolution, timesheet and checklist creation
  /api/timesheets/*  weekly ledger and entries
  /api/entries/*     entry edits
  /api/checklists/*  daily view
  /api/tasks/*       checklist attempt state machine
  /api/managers/*    review queues
  /api/health        liveness + store ping

SEE ALSO:
  - handlers.go, checklist.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured. origins lists the
// frontends allowed by CORS.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		r.Route("/employees/{id}", func(r chi.Router) {
			r.Get("/period", h.GetPeriod)
			r.Get("/day", h.GetDay)
			r.Post("/timesheets", h.CreateTimesheet)
			r.Post("/checklists", h.EnsureChecklist)
		})

		r.Route("/timesheets/{id}", func(r chi.Router) {
			r.Get("/", h.GetTimesheet)
			r.Post("/submit", h.SubmitTimesheet)
			r.Post("/review", h.ReviewTimesheet)
			r.Post("/entries", h.AddEntry)
			r.Get("/export", h.ExportTimesheet)
		})

		r.Route("/entries/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateEntry)
			r.Delete("/", h.DeleteEntry)
		})

		r.Get("/checklists/{id}", h.GetChecklist)

		r.Route("/tasks/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Post("/start", h.StartTask)
			r.Post("/end", h.EndTask)
			r.Post("/submit", h.SubmitTask)
			r.Post("/review", h.ReviewTask)
			r.Post("/retry", h.RetryTask)
			r.Get("/history", h.TaskHistory)
		})

		r.Get("/managers/{id}/reviews", h.ListReviews)
	})

	return r
}
