package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"filmorate/internal/domain"
)

// CreateFilm POST /films.
func (h *Handler) CreateFilm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP CreateFilm request received", slog.String("path", r.URL.Path))

	var req domain.NewFilmRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	film, err := h.films.Create(ctx, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, film)
}

// UpdateFilm PUT /films.
func (h *Handler) UpdateFilm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP UpdateFilm request received", slog.String("path", r.URL.Path))

	var req domain.UpdateFilmRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	film, err := h.films.Update(ctx, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, film)
}

func (h *Handler) GetFilms(w http.ResponseWriter, r *http.Request) {
	films, err := h.films.FindAll(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, films)
}

func (h *Handler) GetFilm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	film, err := h.films.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, film)
}

func (h *Handler) DeleteFilm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.films.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LikeFilm PUT /films/{id}/like/{userId}.
func (h *Handler) LikeFilm(w http.ResponseWriter, r *http.Request) {
	filmID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userId")
	if !ok {
		return
	}
	if err := h.films.LikeFilm(r.Context(), filmID, userID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlikeFilm DELETE /films/{id}/like/{userId}.
func (h *Handler) UnlikeFilm(w http.ResponseWriter, r *http.Request) {
	filmID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userId")
	if !ok {
		return
	}
	if err := h.films.UnlikeFilm(r.Context(), filmID, userID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPopularFilms GET /films/popular?count=N. Без count используется значение из конфигурации.
func (h *Handler) GetPopularFilms(w http.ResponseWriter, r *http.Request) {
	count := h.defaultPopularCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, "Query parameter count must be an integer",
				domain.ValidationError{Field: "count", Message: "must be an integer", RejectedValue: raw})
			return
		}
		count = parsed
	}

	films, err := h.films.GetTopPopularFilms(r.Context(), count)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, films)
}
