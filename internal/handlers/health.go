package handlers

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 3 * time.Second

// Pinger checks that the document store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates the handler. A nil store reports UP (in-memory driver).
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// MongoDB handles GET /health/mongodb.
func (h *HealthHandler) MongoDB(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "DOWN", Error: err.Error()})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "UP", Database: "Connected"})
}
