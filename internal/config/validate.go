package config

import (
	"errors"
	"fmt"
	"strings"

	"filmorate/pkg/auth"
)

var validLogLevels = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Validate проверяет согласованность конфигурации. Возвращает все найденные ошибки сразу.
func (c *Config) Validate() error {
	var errs []error

	if err := validatePort("http.port", c.HTTP.Port); err != nil {
		errs = append(errs, err)
	}
	if c.GRPC.Enabled {
		if err := validatePort("grpc.port", c.GRPC.Port); err != nil {
			errs = append(errs, err)
		}
		if c.GRPC.Port == c.HTTP.Port {
			errs = append(errs, fmt.Errorf("grpc.port must differ from http.port (%d)", c.HTTP.Port))
		}
	}

	switch c.Database.Backend {
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for postgres backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("database.backend must be postgres or memory, got %q", c.Database.Backend))
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level %q is not supported", c.Logging.Level))
	}
	if f := strings.ToLower(c.Logging.Format); f != "json" && f != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	if c.AdminEnabled() {
		if len(c.Security.JWTSecretKey) < auth.MinSecretLength {
			errs = append(errs, fmt.Errorf("security.jwt_secret_key must be at least %d characters when admin access is enabled", auth.MinSecretLength))
		}
		if err := auth.ValidatePasswordHash(c.Security.AdminPasswordHash); err != nil {
			errs = append(errs, fmt.Errorf("security.admin_password_hash: %w", err))
		}
		if c.Security.AdminUsername == "" {
			errs = append(errs, errors.New("security.admin_username is required when admin access is enabled"))
		}
		if c.Security.TokenTTL <= 0 {
			errs = append(errs, errors.New("security.token_ttl must be positive"))
		}
	}
	if c.Security.RateLimitRequests < 0 {
		errs = append(errs, errors.New("security.rate_limit_requests must not be negative"))
	}
	if c.Security.RateLimitRequests > 0 && c.Security.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("security.rate_limit_window must be positive when rate limiting is enabled"))
	}

	if c.Films.PopularDefaultCount <= 0 {
		errs = append(errs, errors.New("films.popular_default_count must be positive"))
	}

	return errors.Join(errs...)
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}
