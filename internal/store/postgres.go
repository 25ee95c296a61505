package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type txKey struct{}

// pgBase общая часть PostgreSQL-хранилищ: соединение и выбор транзакции из контекста.
type pgBase struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// ext возвращает транзакцию из ctx, если она есть, иначе пул соединений.
func (b pgBase) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return b.db
}

// mapError переводит ошибки драйвера в ошибки пакета store.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", ErrAlreadyExists, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Constraint)
		}
	}
	return err
}

// NewPostgresStores создает полный набор хранилищ поверх одного пула соединений.
func NewPostgresStores(db *sqlx.DB, logger *slog.Logger) (*Stores, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	base := pgBase{db: db, logger: logger}
	return &Stores{
		Films:      &PostgresFilmStore{pgBase: base},
		Users:      &PostgresUserStore{pgBase: base},
		FilmGenres: &PostgresFilmGenreStore{pgBase: base},
		Likes:      &PostgresFilmLikeStore{pgBase: base},
		Friends:    &PostgresFriendshipStore{pgBase: base},
		Genres:     &PostgresGenreStore{pgBase: base},
		Ratings:    &PostgresRatingMpaaStore{pgBase: base},
		Tx:         &PostgresTxManager{db: db, logger: logger},
	}, nil
}

// PostgresTxManager реализует TxManager на *sqlx.Tx.
type PostgresTxManager struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// WithinTransaction переиспользует уже открытую транзакцию из ctx.
func (m *PostgresTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.ErrorContext(ctx, "Failed to rollback transaction", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
