package routes

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/journal-backend/internal/handlers"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups everything the route table serves.
type Handlers struct {
	Users   *handlers.UserHandler
	Journal *handlers.JournalHandler
	Health  *handlers.HealthHandler
	Feed    *handlers.JournalFeed
	Audit   *handlers.AuditHandler
	Metrics http.Handler

	// RequestTimeout bounds /api requests; zero disables it
	RequestTimeout time.Duration
}

func SetupRoutes(r chi.Router, h Handlers) {
	// Health and metrics
	r.Get("/health", h.Health.Health)
	r.Get("/health/mongodb", h.Health.MongoDB)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// Live feed (long-lived, no timeout)
	r.Get("/ws/journal/{userName}", h.Feed.Serve)

	r.Group(func(r chi.Router) {
		if h.RequestTimeout > 0 {
			r.Use(chimw.Timeout(h.RequestTimeout))
		}

		// Journal entry routes
		r.Get("/api/journal/{userName}", h.Journal.ListForUser)
		r.Post("/api/journal/{userName}", h.Journal.Create)
		r.Get("/api/journal/id/{id}", h.Journal.GetByID)
		r.Put("/api/journal/id/{userName}/{id}", h.Journal.Update)
		r.Delete("/api/journal/id/{userName}/{id}", h.Journal.Delete)
		r.Post("/api/journal/id/{userName}/{id}/attachments", h.Journal.UploadAttachment)

		// User routes
		r.Get("/api/users", h.Users.List)
		r.Post("/api/users", h.Users.Create)
		r.Get("/api/users/{id}", h.Users.Get)
		r.Put("/api/{userName}", h.Users.Update)
		r.Delete("/api/{userId}", h.Users.Delete)

		// Audit trail
		r.Get("/api/audit", h.Audit.Recent)
	})
}
