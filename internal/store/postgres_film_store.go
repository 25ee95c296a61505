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

const filmSelect = `SELECT f.id, f.name, f.description, f.release_date, f.duration,
       f.rating_mpaa_id, rm.name AS rating_mpaa_name
FROM films f
JOIN rating_mpaa rm ON rm.id = f.rating_mpaa_id`

// filmRow строка films вместе с названием рейтинга.
type filmRow struct {
	ID          int64       `db:"id"`
	Name        string      `db:"name"`
	Description string      `db:"description"`
	ReleaseDate domain.Date `db:"release_date"`
	Duration    int         `db:"duration"`
	MpaID       int64       `db:"rating_mpaa_id"`
	MpaName     string      `db:"rating_mpaa_name"`
}

func (r filmRow) toFilm() *domain.Film {
	return &domain.Film{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		ReleaseDate: r.ReleaseDate,
		Duration:    r.Duration,
		Mpa:         domain.RatingMpaa{ID: r.MpaID, Name: r.MpaName},
	}
}

func rowsToFilms(rows []filmRow) []*domain.Film {
	films := make([]*domain.Film, 0, len(rows))
	for _, r := range rows {
		films = append(films, r.toFilm())
	}
	return films
}

// PostgresFilmStore реализует FilmStore для PostgreSQL.
type PostgresFilmStore struct {
	pgBase
}

// Create вставляет фильм и возвращает id через RETURNING.
func (s *PostgresFilmStore) Create(ctx context.Context, film *domain.Film) error {
	query := `INSERT INTO films (name, description, release_date, duration, rating_mpaa_id)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`

	s.logger.DebugContext(ctx, "Executing Create film query", slog.String("name", film.Name))
	err := sqlx.GetContext(ctx, s.ext(ctx), &film.ID, query,
		film.Name, film.Description, film.ReleaseDate, film.Duration, film.Mpa.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create film in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create film: %w", mapError(err))
	}
	s.logger.InfoContext(ctx, "Film created in DB", slog.Int64("filmID", film.ID))
	return nil
}

func (s *PostgresFilmStore) Update(ctx context.Context, film *domain.Film) error {
	query := `UPDATE films SET name = $1, description = $2, release_date = $3, duration = $4, rating_mpaa_id = $5
              WHERE id = $6`

	result, err := s.ext(ctx).ExecContext(ctx, query,
		film.Name, film.Description, film.ReleaseDate, film.Duration, film.Mpa.ID, film.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update film in DB", slog.Int64("filmID", film.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update film: %w", mapError(err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresFilmStore) GetByID(ctx context.Context, id int64) (*domain.Film, error) {
	var row filmRow
	if err := sqlx.GetContext(ctx, s.ext(ctx), &row, filmSelect+` WHERE f.id = $1`, id); err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, ErrNotFound) {
			s.logger.WarnContext(ctx, "Film not found by ID in DB", slog.Int64("filmID", id))
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get film by ID: %w", mapped)
	}
	return row.toFilm(), nil
}

func (s *PostgresFilmStore) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Film, error) {
	if len(ids) == 0 {
		return []*domain.Film{}, nil
	}
	var rows []filmRow
	query := filmSelect + ` WHERE f.id = ANY($1) ORDER BY f.id`
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to list films by ids: %w", err)
	}
	return rowsToFilms(rows), nil
}

func (s *PostgresFilmStore) List(ctx context.Context) ([]*domain.Film, error) {
	var rows []filmRow
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &rows, filmSelect+` ORDER BY f.id`); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list films from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list films: %w", err)
	}
	return rowsToFilms(rows), nil
}

// Delete удаляет фильм; жанры и лайки удаляются каскадно.
func (s *PostgresFilmStore) Delete(ctx context.Context, id int64) error {
	result, err := s.ext(ctx).ExecContext(ctx, `DELETE FROM films WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete film: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.logger.InfoContext(ctx, "Film deleted from DB", slog.Int64("filmID", id))
	return nil
}

func (s *PostgresFilmStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, s.ext(ctx), &exists, `SELECT EXISTS(SELECT 1 FROM films WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("failed to check film existence: %w", err)
	}
	return exists, nil
}
