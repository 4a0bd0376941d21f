package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/AnshRaj112/journal-backend/internal/audit"
	"github.com/AnshRaj112/journal-backend/internal/logger"
)

// AuditLister reads the newest audit records.
type AuditLister interface {
	Recent(ctx context.Context, limit int) ([]audit.Record, error)
}

type AuditHandler struct {
	lister AuditLister
}

// NewAuditHandler creates the handler. A nil lister answers 503.
func NewAuditHandler(lister AuditLister) *AuditHandler {
	return &AuditHandler{lister: lister}
}

// Recent handles GET /api/audit?limit=N.
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	limit := audit.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.lister.Recent(r.Context(), limit)
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Error("failed to read audit records")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, records)
}
