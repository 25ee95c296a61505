package api

import (
	"context"
	"log/slog"
	"net/http"

	"filmorate/internal/domain"
	"filmorate/pkg/auth"

	"github.com/go-playground/validator/v10"
)

// FilmService операции над фильмами, нужные HTTP-слою.
type FilmService interface {
	Create(ctx context.Context, req domain.NewFilmRequest) (domain.FilmDto, error)
	Update(ctx context.Context, req domain.UpdateFilmRequest) (domain.FilmDto, error)
	FindByID(ctx context.Context, id int64) (domain.FilmDto, error)
	FindAll(ctx context.Context) ([]domain.FilmDto, error)
	Delete(ctx context.Context, id int64) error
	LikeFilm(ctx context.Context, filmID, userID int64) error
	UnlikeFilm(ctx context.Context, filmID, userID int64) error
	GetTopPopularFilms(ctx context.Context, count int) ([]domain.FilmDto, error)
}

// UserService операции над пользователями и дружбой.
type UserService interface {
	Create(ctx context.Context, req domain.NewUserRequest) (domain.UserDto, error)
	Update(ctx context.Context, req domain.UpdateUserRequest) (domain.UserDto, error)
	FindByID(ctx context.Context, id int64) (domain.UserDto, error)
	FindAll(ctx context.Context) ([]domain.UserDto, error)
	Delete(ctx context.Context, id int64) error
	AddFriend(ctx context.Context, userID, friendID int64) error
	RemoveFriend(ctx context.Context, userID, friendID int64) error
	GetFriends(ctx context.Context, userID int64) ([]domain.UserDto, error)
	GetCommonFriends(ctx context.Context, userID, otherID int64) ([]domain.UserDto, error)
}

type GenreService interface {
	FindAll(ctx context.Context) ([]domain.Genre, error)
	FindByID(ctx context.Context, id int64) (domain.Genre, error)
	InvalidateCache()
}

type RatingMpaaService interface {
	FindAll(ctx context.Context) ([]domain.RatingMpaa, error)
	FindByID(ctx context.Context, id int64) (domain.RatingMpaa, error)
	InvalidateCache()
}

// AdminCredentials учетные данные администратора; пароль хранится как bcrypt хеш.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

// Deps зависимости Handler.
type Deps struct {
	Films               FilmService
	Users               UserService
	Genres              GenreService
	Ratings             RatingMpaaService
	Logger              *slog.Logger
	Validator           *validator.Validate
	TokenManager        auth.TokenManager
	Admin               AdminCredentials
	DefaultPopularCount int
	// HealthCheck проверяет доступность хранилища; nil означает "всегда здоров".
	HealthCheck func(ctx context.Context) error
}

// Handler содержит зависимости HTTP обработчиков.
type Handler struct {
	films               FilmService
	users               UserService
	genres              GenreService
	ratings             RatingMpaaService
	logger              *slog.Logger
	validator           *validator.Validate
	tokenManager        auth.TokenManager
	admin               AdminCredentials
	defaultPopularCount int
	healthCheck         func(ctx context.Context) error
}

// NewHandler создает Handler. Валидатор по умолчанию берется из NewValidator.
func NewHandler(d Deps) *Handler {
	if d.Validator == nil {
		d.Validator = NewValidator()
	}
	if d.DefaultPopularCount <= 0 {
		d.DefaultPopularCount = 10
	}
	return &Handler{
		films:               d.Films,
		users:               d.Users,
		genres:              d.Genres,
		ratings:             d.Ratings,
		logger:              d.Logger,
		validator:           d.Validator,
		tokenManager:        d.TokenManager,
		admin:               d.Admin,
		defaultPopularCount: d.DefaultPopularCount,
		healthCheck:         d.HealthCheck,
	}
}

// Health отвечает 200, если хранилище доступно.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.healthCheck != nil {
		if err := h.healthCheck(r.Context()); err != nil {
			h.logger.ErrorContext(r.Context(), "Health check failed", slog.String("error", err.Error()))
			h.respondJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, http.StatusNotFound, "Route not found")
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}
