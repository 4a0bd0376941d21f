package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/services"
	"github.com/AnshRaj112/journal-backend/pkg/utils"
	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// userRequest carries the password, which User never renders.
type userRequest struct {
	UserName string   `json:"userName"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetAll(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Error("failed to list users")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}

// Get handles GET /api/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	user, found, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Error("failed to load user")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

// Create handles POST /api/users. Any failure is a 400.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ctx := logger.ContextWithUser(r.Context(), req.UserName)
	saved, err := h.users.SaveUser(ctx, &models.User{
		UserName:       req.UserName,
		Password:       hashed,
		Roles:          req.Roles,
		JournalEntries: []models.JournalEntry{},
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to create user")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Location", "/api/users/"+saved.ID.Hex())
	w.WriteHeader(http.StatusCreated)
}

// Update handles PUT /api/{userName}, replacing the user name and password.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "userName")
	ctx := logger.ContextWithUser(r.Context(), userName)

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	user, found, err := h.users.FindByUserName(ctx, userName)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to load user")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	user.UserName = req.UserName
	user.Password = hashed

	if _, err := h.users.SaveUser(ctx, user); err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to update user")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Delete handles DELETE /api/{userId}. Entries of the user are kept.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "userId")
	if !ok {
		return
	}
	if err := h.users.DeleteUserByID(r.Context(), id); err != nil {
		logger.FromContext(r.Context()).WithError(err).Warn("failed to delete user")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}
