package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"filmorate/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const userColumns = `id, email, login, name, birthday`

// PostgresUserStore реализует UserStore для PostgreSQL.
type PostgresUserStore struct {
	pgBase
}

// Create возвращает ErrAlreadyExists при нарушении уникальности email.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (email, login, name, birthday) VALUES ($1, $2, $3, $4) RETURNING id`

	s.logger.DebugContext(ctx, "Executing Create user query", slog.String("login", user.Login))
	err := sqlx.GetContext(ctx, s.ext(ctx), &user.ID, query, user.Email, user.Login, user.Name, user.Birthday)
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "User already exists (unique constraint violation in DB)", slog.String("email", user.Email))
			return mapped
		}
		s.logger.ErrorContext(ctx, "Failed to create user in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create user: %w", mapped)
	}
	s.logger.InfoContext(ctx, "User created in DB", slog.Int64("userID", user.ID))
	return nil
}

func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET email = $1, login = $2, name = $3, birthday = $4 WHERE id = $5`

	result, err := s.ext(ctx).ExecContext(ctx, query, user.Email, user.Login, user.Name, user.Birthday, user.ID)
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, ErrAlreadyExists) {
			return mapped
		}
		s.logger.ErrorContext(ctx, "Failed to update user in DB", slog.Int64("userID", user.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update user: %w", mapped)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresUserStore) get(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := sqlx.GetContext(ctx, s.ext(ctx), &user, query, arg); err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", mapped)
	}
	return &user, nil
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *PostgresUserStore) ListByIDs(ctx context.Context, ids []int64) ([]*domain.User, error) {
	users := []*domain.User{}
	if len(ids) == 0 {
		return users, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &users, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to list users by ids: %w", err)
	}
	return users, nil
}

func (s *PostgresUserStore) List(ctx context.Context) ([]*domain.User, error) {
	users := []*domain.User{}
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list users from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Delete удаляет пользователя; дружба и лайки удаляются каскадно.
func (s *PostgresUserStore) Delete(ctx context.Context, id int64) error {
	result, err := s.ext(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.logger.InfoContext(ctx, "User deleted from DB", slog.Int64("userID", id))
	return nil
}

func (s *PostgresUserStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, s.ext(ctx), &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
