package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"filmorate/internal/api"
	"filmorate/internal/config"
	grpcserver "filmorate/internal/grpc"
	"filmorate/internal/logging"
	"filmorate/internal/service"
	"filmorate/internal/store"
	"filmorate/internal/supervisor"
	"filmorate/pkg/auth"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"google.golang.org/grpc/reflection"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "filmorate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, healthCheck, closeStores, err := openStores(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	genres := service.NewGenreService(stores.Genres, logger)
	ratings := service.NewRatingMpaaService(stores.Ratings, logger)
	users := service.NewUserService(stores, logger)
	films := service.NewFilmService(stores, genres, ratings, users, logger)

	var tokens auth.TokenManager
	if cfg.AdminEnabled() {
		tokens, err = auth.NewTokenManager(cfg.Security.JWTSecretKey, cfg.Security.TokenTTL)
		if err != nil {
			return fmt.Errorf("failed to create token manager: %w", err)
		}
		logger.Info("Admin endpoints enabled", slog.String("username", cfg.Security.AdminUsername))
	}

	handler := api.NewHandler(api.Deps{
		Films:   films,
		Users:   users,
		Genres:  genres,
		Ratings: ratings,
		Logger:  logger,
		Admin: api.AdminCredentials{
			Username:     cfg.Security.AdminUsername,
			PasswordHash: cfg.Security.AdminPasswordHash,
		},
		TokenManager:        tokens,
		DefaultPopularCount: cfg.Films.PopularDefaultCount,
		HealthCheck:         healthCheck,
	})
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins:       cfg.Security.CORSOrigins,
		RateLimitRequests: cfg.Security.RateLimitRequests,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
	})

	httpAddr := net.JoinHostPort(cfg.HTTP.Host, strconv.Itoa(cfg.HTTP.Port))
	httpServer := &http.Server{
		Addr:         httpAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	tree := supervisor.NewTree(logger, supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, cfg.HTTP.ShutdownTimeout))
	logger.Info("HTTP server configured", slog.String("address", httpAddr))

	if cfg.GRPC.Enabled {
		inter := grpcserver.NewServer(films, users, logger)
		grpcAddr := net.JoinHostPort(cfg.HTTP.Host, strconv.Itoa(cfg.GRPC.Port))
		tree.AddAPIService(supervisor.NewGRPCService(grpcAddr, func() supervisor.GRPCServer {
			srv := grpcserver.NewGRPCServer(inter)
			reflection.Register(srv)
			return srv
		}, cfg.HTTP.ShutdownTimeout, logger))
		logger.Info("gRPC server configured", slog.String("address", grpcAddr))
	}

	logger.Info("Filmorate starting", slog.String("backend", cfg.Database.Backend))
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor stopped: %w", err)
	}
	logger.Info("Filmorate stopped")
	return nil
}

// openStores подключает выбранное хранилище. Для postgres применяет миграции, если включено.
func openStores(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*store.Stores, func(context.Context) error, func(), error) {
	if cfg.Backend == "memory" {
		logger.Warn("Using in-memory storage, data will be lost on restart")
		return store.NewMemoryStores(logger), nil, func() {}, nil
	}

	logger.Info("Connecting to PostgreSQL", slog.String("url", redactURL(cfg.URL)))
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.URL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	closeDB := func() {
		logger.Info("Closing PostgreSQL connection")
		if err := db.Close(); err != nil {
			logger.Error("Failed to close PostgreSQL connection", slog.String("error", err.Error()))
		}
	}

	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, db, logger); err != nil {
			closeDB()
			return nil, nil, nil, err
		}
	}

	stores, err := store.NewPostgresStores(db, logger)
	if err != nil {
		closeDB()
		return nil, nil, nil, err
	}
	return stores, db.PingContext, closeDB, nil
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
