package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"filmorate/pkg/auth"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(PathEnvVar, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != 8080 || cfg.GRPC.Port != 9090 {
		t.Errorf("ports = %d/%d, want 8080/9090", cfg.HTTP.Port, cfg.GRPC.Port)
	}
	if cfg.Database.Backend != "postgres" || !cfg.Database.AutoMigrate {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Films.PopularDefaultCount != 10 {
		t.Errorf("PopularDefaultCount = %d, want 10", cfg.Films.PopularDefaultCount)
	}
	if cfg.AdminEnabled() {
		t.Error("admin must be disabled by default")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := `
http:
  port: 8181
  read_timeout: 5s
database:
  backend: memory
logging:
  level: debug
  format: console
security:
  cors_origins:
    - https://a.example
films:
  popular_default_count: 3
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv(PathEnvVar, path)
	t.Setenv("HTTP_PORT", "8282")
	t.Setenv("FILMORATE_DATABASE_URL", "postgres://u:p@db:5432/f")
	t.Setenv("RATE_LIMIT_REQUESTS", "50")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != 8282 {
		t.Errorf("env must override file: port = %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 15*time.Second {
		t.Errorf("default must survive: WriteTimeout = %v", cfg.HTTP.WriteTimeout)
	}
	if cfg.Database.Backend != "memory" || cfg.Database.URL != "postgres://u:p@db:5432/f" {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "https://a.example" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Security.RateLimitRequests != 50 || cfg.Security.RateLimitWindow != 30*time.Second {
		t.Errorf("unexpected rate limit: %d per %v", cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow)
	}
	if cfg.Films.PopularDefaultCount != 3 {
		t.Errorf("PopularDefaultCount = %d, want 3", cfg.Films.PopularDefaultCount)
	}
}

func TestLoad_CommaSeparatedOrigins(t *testing.T) {
	t.Setenv(PathEnvVar, "")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if strings.Join(cfg.Security.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(PathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	adminHash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "bad http port", mutate: func(c *Config) { c.HTTP.Port = 70000 }, wantErr: "http.port"},
		{name: "same ports", mutate: func(c *Config) { c.GRPC.Port = c.HTTP.Port }, wantErr: "must differ"},
		{name: "grpc disabled ignores port", mutate: func(c *Config) { c.GRPC.Enabled = false; c.GRPC.Port = 0 }},
		{name: "unknown backend", mutate: func(c *Config) { c.Database.Backend = "mysql" }, wantErr: "database.backend"},
		{name: "postgres without url", mutate: func(c *Config) { c.Database.URL = "" }, wantErr: "database.url"},
		{name: "memory without url", mutate: func(c *Config) { c.Database.Backend = "memory"; c.Database.URL = "" }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{
			name:    "admin with short secret",
			mutate:  func(c *Config) { c.Security.AdminPasswordHash = adminHash; c.Security.JWTSecretKey = "short" },
			wantErr: "jwt_secret_key",
		},
		{
			name: "admin with long secret",
			mutate: func(c *Config) {
				c.Security.AdminPasswordHash = adminHash
				c.Security.JWTSecretKey = strings.Repeat("k", 32)
			},
		},
		{
			name: "admin with plain text password",
			mutate: func(c *Config) {
				c.Security.AdminPasswordHash = "s3cret"
				c.Security.JWTSecretKey = strings.Repeat("k", 32)
			},
			wantErr: "admin_password_hash",
		},
		{name: "negative rate limit", mutate: func(c *Config) { c.Security.RateLimitRequests = -1 }, wantErr: "rate_limit_requests"},
		{
			name:    "rate limit without window",
			mutate:  func(c *Config) { c.Security.RateLimitRequests = 10; c.Security.RateLimitWindow = 0 },
			wantErr: "rate_limit_window",
		},
		{name: "zero popular count", mutate: func(c *Config) { c.Films.PopularDefaultCount = 0 }, wantErr: "popular_default_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
