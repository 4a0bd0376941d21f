package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

const maxAttachmentSize = 10 << 20 // 10MB

// JournalHandler serves /api/journal. Error bodies are empty.
type JournalHandler struct {
	journal  *services.JournalEntryService
	uploader services.AttachmentUploader

	// scopeToOwner lists the owner sequence instead of every entry
	scopeToOwner bool
}

// NewJournalHandler creates the handler. uploader may be nil, which disables attachments.
func NewJournalHandler(journal *services.JournalEntryService, uploader services.AttachmentUploader, scopeToOwner bool) *JournalHandler {
	return &JournalHandler{journal: journal, uploader: uploader, scopeToOwner: scopeToOwner}
}

type journalEntryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (req journalEntryRequest) entry() models.JournalEntry {
	return models.JournalEntry{Title: req.Title, Content: req.Content}
}

// ListForUser handles GET /api/journal/{userName}. Unless owner scoping is
// configured the user name is ignored and every entry is returned. 404 when empty.
func (h *JournalHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := logger.ContextWithUser(r.Context(), chi.URLParam(r, "userName"))

	if h.scopeToOwner {
		entries, ok, err := h.journal.GetEntriesOfUser(ctx, chi.URLParam(r, "userName"))
		if err != nil {
			logger.FromContext(ctx).WithError(err).Error("failed to list journal entries of user")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if !ok || len(entries) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, r, http.StatusOK, entries)
		return
	}

	entries, err := h.journal.GetAllJournalEntries(ctx)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to list journal entries")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if len(entries) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// Create handles POST /api/journal/{userName}. Any failure is a 400.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "userName")
	ctx := logger.ContextWithUser(r.Context(), userName)

	var req journalEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	entry := req.entry()
	saved, err := h.journal.SaveEntry(ctx, &entry, userName)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			logger.FromContext(ctx).Info("journal entry rejected for unknown user")
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Location", "/api/journal/id/"+saved.ID.Hex())
	w.WriteHeader(http.StatusCreated)
}

// GetByID handles GET /api/journal/id/{id}.
func (h *JournalHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}

	entry, found, err := h.journal.GetJournalEntryByID(r.Context(), id)
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Error("failed to load journal entry")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, entry)
}

// Update handles PUT /api/journal/id/{userName}/{id}. Empty title or content keep the stored value.
func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	userName := chi.URLParam(r, "userName")
	ctx := logger.ContextWithUser(r.Context(), userName)

	var req journalEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	old, found, err := h.journal.GetJournalEntryByID(ctx, id)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to load journal entry")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	old.ApplyUpdate(req.entry())
	saved, err := h.journal.SaveEntry(ctx, old, userName)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, saved)
}

// Delete handles DELETE /api/journal/id/{userName}/{id}.
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	ctx := logger.ContextWithUser(r.Context(), chi.URLParam(r, "userName"))

	if err := h.journal.DeleteEntityByID(ctx, id, chi.URLParam(r, "userName")); err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to delete journal entry")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadAttachment handles POST /api/journal/id/{userName}/{id}/attachments with a multipart "file" field.
func (h *JournalHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	userName := chi.URLParam(r, "userName")
	ctx := logger.ContextWithUser(r.Context(), userName)

	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentSize+1<<20)
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	file.Close()

	if _, found, err := h.journal.GetJournalEntryByID(ctx, id); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	} else if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	url, err := h.uploader.UploadFileFromHeader(ctx, fileHeader, services.AttachmentFolder(userName))
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to upload attachment")
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	saved, found, err := h.journal.AddAttachment(ctx, id, userName, url)
	switch {
	case err != nil:
		w.WriteHeader(http.StatusBadRequest)
	case !found:
		w.WriteHeader(http.StatusNotFound)
	default:
		writeJSON(w, r, http.StatusOK, saved)
	}
}
