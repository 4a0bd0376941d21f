package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).WithError(err).Warn("failed to encode response")
	}
}

// objectIDParam parses a 24-character hex path parameter. It writes 400 and returns false when malformed.
func objectIDParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}
