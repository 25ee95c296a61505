package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"filmorate/internal/domain"
	"filmorate/internal/store"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, message string, errs ...domain.ValidationError) {
	h.respondJSON(w, r, status, domain.NewErrorResponse(message, errs...))
}

// respondServiceError переводит ошибку сервиса в HTTP-статус.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.logger.WarnContext(ctx, "Validation failed", slog.String("field", vErr.Field), slog.String("error", vErr.Message))
		h.respondError(w, r, http.StatusBadRequest, vErr.Error(), *vErr)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, store.ErrNotFound):
		h.logger.WarnContext(ctx, "Resource not found", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		h.logger.WarnContext(ctx, "Resource conflict", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusConflict, "Resource already exists")
	default:
		h.logger.ErrorContext(ctx, "Request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeAndValidate читает JSON-тело в dst и проверяет теги validate.
// При ошибке ответ уже отправлен и возвращается false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	ctx := r.Context()
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode request body", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload",
			domain.ValidationError{Field: "body", Message: err.Error()})
		return false
	}
	if err := h.validator.StructCtx(ctx, dst); err != nil {
		h.logger.WarnContext(ctx, "Request validation failed", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Validation failed", translateValidationErrors(err)...)
		return false
	}
	return true
}

// pathID читает положительный целый параметр пути.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.respondError(w, r, http.StatusBadRequest, "Path parameter must be a positive integer",
			domain.ValidationError{Field: name, Message: "must be a positive integer", RejectedValue: raw})
		return 0, false
	}
	return id, true
}
