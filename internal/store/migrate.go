package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate применяет встроенные SQL-скрипты по порядку имен.
// Скрипты идемпотентны, повторный запуск безопасен.
func Migrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			logger.ErrorContext(ctx, "Migration failed", slog.String("migration", name), slog.String("error", err.Error()))
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		logger.InfoContext(ctx, "Migration applied", slog.String("migration", name))
	}
	return nil
}
