package api

import (
	"log/slog"
	"net/http"

	"filmorate/pkg/auth"
)

func (h *Handler) GetGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.genres.FindAll(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, genres)
}

func (h *Handler) GetGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	genre, err := h.genres.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, genre)
}

func (h *Handler) GetRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.ratings.FindAll(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, ratings)
}

func (h *Handler) GetRating(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	rating, err := h.ratings.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, rating)
}

// LoginRequest тело POST /admin/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse ответ при успешном входе.
type LoginResponse struct {
	Token string `json:"token"`
}

// AdminLogin выдает JWT с ролью admin.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.tokenManager == nil || h.admin.PasswordHash == "" {
		h.respondError(w, r, http.StatusNotFound, "Admin access is disabled")
		return
	}

	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Username != h.admin.Username || !auth.CheckPasswordHash(req.Password, h.admin.PasswordHash) {
		h.logger.WarnContext(ctx, "Invalid admin credentials", slog.String("username", req.Username))
		h.respondError(w, r, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := h.tokenManager.Generate(req.Username, auth.RoleAdmin)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to generate JWT token", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Login failed (token generation)")
		return
	}
	h.logger.InfoContext(ctx, "Admin logged in", slog.String("username", req.Username))
	h.respondJSON(w, r, http.StatusOK, LoginResponse{Token: token})
}

// InvalidateCache POST /admin/cache/invalidate сбрасывает кэш справочников.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.genres.InvalidateCache()
	h.ratings.InvalidateCache()
	h.logger.InfoContext(r.Context(), "Reference caches invalidated", slog.String("by", subjectFromContext(r.Context())))
	w.WriteHeader(http.StatusNoContent)
}
