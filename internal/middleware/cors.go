package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the configured origins (e.g. https://journal.example.com, http://localhost:3000).
// Preflight requests are answered here and never reach the router.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
