package api

import (
	"net/http"
	"time"

	"filmorate/pkg/auth"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions параметры внешних middleware.
type RouterOptions struct {
	CORSOrigins []string
	// RateLimitRequests запросов за RateLimitWindow с одного IP; 0 отключает ограничение.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter создает и настраивает HTTP маршрутизатор сервиса.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(h.notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)
	router.Use(MetricsMiddleware)

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	films := router.PathPrefix("/films").Subrouter()
	films.HandleFunc("", h.CreateFilm).Methods(http.MethodPost)
	films.HandleFunc("", h.UpdateFilm).Methods(http.MethodPut)
	films.HandleFunc("", h.GetFilms).Methods(http.MethodGet)
	// popular регистрируется раньше /{id}
	films.HandleFunc("/popular", h.GetPopularFilms).Methods(http.MethodGet)
	films.HandleFunc("/{id}", h.GetFilm).Methods(http.MethodGet)
	films.HandleFunc("/{id}", h.DeleteFilm).Methods(http.MethodDelete)
	films.HandleFunc("/{id}/like/{userId}", h.LikeFilm).Methods(http.MethodPut)
	films.HandleFunc("/{id}/like/{userId}", h.UnlikeFilm).Methods(http.MethodDelete)

	users := router.PathPrefix("/users").Subrouter()
	users.HandleFunc("", h.CreateUser).Methods(http.MethodPost)
	users.HandleFunc("", h.UpdateUser).Methods(http.MethodPut)
	users.HandleFunc("", h.GetUsers).Methods(http.MethodGet)
	users.HandleFunc("/{id}", h.GetUser).Methods(http.MethodGet)
	users.HandleFunc("/{id}", h.DeleteUser).Methods(http.MethodDelete)
	users.HandleFunc("/{id}/friends", h.GetFriends).Methods(http.MethodGet)
	users.HandleFunc("/{id}/friends/common/{otherId}", h.GetCommonFriends).Methods(http.MethodGet)
	users.HandleFunc("/{id}/friends/{friendId}", h.AddFriend).Methods(http.MethodPut)
	users.HandleFunc("/{id}/friends/{friendId}", h.RemoveFriend).Methods(http.MethodDelete)

	router.HandleFunc("/genres", h.GetGenres).Methods(http.MethodGet)
	router.HandleFunc("/genres/{id}", h.GetGenre).Methods(http.MethodGet)
	router.HandleFunc("/mpa", h.GetRatings).Methods(http.MethodGet)
	router.HandleFunc("/mpa/{id}", h.GetRating).Methods(http.MethodGet)

	admin := router.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/login", h.AdminLogin).Methods(http.MethodPost)
	protected := admin.PathPrefix("/cache").Subrouter()
	protected.Use(h.AuthMiddleware, h.RequireRole(auth.RoleAdmin))
	protected.HandleFunc("/invalidate", h.InvalidateCache).Methods(http.MethodPost)

	var handler http.Handler = router
	if opts.RateLimitRequests > 0 {
		window := opts.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		handler = httprate.Limit(opts.RateLimitRequests, window, httprate.WithKeyFuncs(httprate.KeyByIP))(handler)
	}
	if len(opts.CORSOrigins) > 0 {
		handler = cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		})(handler)
	}
	handler = h.LoggingMiddleware(handler)
	handler = h.RecoverMiddleware(handler)
	return RequestIDMiddleware(handler)
}
