package api

import (
	"log/slog"
	"net/http"

	"filmorate/internal/domain"
)

// CreateUser POST /users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP CreateUser request received", slog.String("path", r.URL.Path))

	var req domain.NewUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.users.Create(ctx, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, user)
}

// UpdateUser PUT /users.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP UpdateUser request received", slog.String("path", r.URL.Path))

	var req domain.UpdateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.users.Update(ctx, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, user)
}

func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindAll(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) friendPair(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := h.pathID(w, r, "id")
	if !ok {
		return 0, 0, false
	}
	friendID, ok := h.pathID(w, r, "friendId")
	if !ok {
		return 0, 0, false
	}
	return userID, friendID, true
}

// AddFriend PUT /users/{id}/friends/{friendId}.
func (h *Handler) AddFriend(w http.ResponseWriter, r *http.Request) {
	userID, friendID, ok := h.friendPair(w, r)
	if !ok {
		return
	}
	if err := h.users.AddFriend(r.Context(), userID, friendID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveFriend DELETE /users/{id}/friends/{friendId}.
func (h *Handler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID, friendID, ok := h.friendPair(w, r)
	if !ok {
		return
	}
	if err := h.users.RemoveFriend(r.Context(), userID, friendID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetFriends(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	friends, err := h.users.GetFriends(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, friends)
}

// GetCommonFriends GET /users/{id}/friends/common/{otherId}.
func (h *Handler) GetCommonFriends(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	otherID, ok := h.pathID(w, r, "otherId")
	if !ok {
		return
	}
	friends, err := h.users.GetCommonFriends(r.Context(), id, otherID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, friends)
}
