package store

import (
	"context"
	"fmt"
	"log/slog"

	"filmorate/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresFilmGenreStore реализует FilmGenreStore.
type PostgresFilmGenreStore struct {
	pgBase
}

// ReplaceForFilm удаляет старые связи и вставляет новые одним запросом через unnest.
func (s *PostgresFilmGenreStore) ReplaceForFilm(ctx context.Context, filmID int64, genreIDs []int64) error {
	ext := s.ext(ctx)
	if _, err := ext.ExecContext(ctx, `DELETE FROM film_genres WHERE film_id = $1`, filmID); err != nil {
		return fmt.Errorf("failed to clear film genres: %w", err)
	}
	if len(genreIDs) == 0 {
		return nil
	}
	query := `INSERT INTO film_genres (film_id, genre_id)
              SELECT $1, unnest($2::bigint[])
              ON CONFLICT DO NOTHING`
	if _, err := ext.ExecContext(ctx, query, filmID, pq.Array(genreIDs)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert film genres", slog.Int64("filmID", filmID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert film genres: %w", mapError(err))
	}
	return nil
}

type filmGenreRow struct {
	FilmID int64  `db:"film_id"`
	ID     int64  `db:"id"`
	Name   string `db:"name"`
}

func (s *PostgresFilmGenreStore) GenresByFilmIDs(ctx context.Context, filmIDs []int64) (map[int64][]domain.Genre, error) {
	out := make(map[int64][]domain.Genre, len(filmIDs))
	if len(filmIDs) == 0 {
		return out, nil
	}
	query := `SELECT fg.film_id, g.id, g.name
              FROM film_genres fg
              JOIN genres g ON g.id = fg.genre_id
              WHERE fg.film_id = ANY($1)
              ORDER BY fg.film_id, g.id`
	var rows []filmGenreRow
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &rows, query, pq.Array(filmIDs)); err != nil {
		return nil, fmt.Errorf("failed to get genres by film ids: %w", err)
	}
	for _, r := range rows {
		out[r.FilmID] = append(out[r.FilmID], domain.Genre{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

// PostgresFilmLikeStore реализует FilmLikeStore.
type PostgresFilmLikeStore struct {
	pgBase
}

func (s *PostgresFilmLikeStore) Add(ctx context.Context, filmID, userID int64) (bool, error) {
	result, err := s.ext(ctx).ExecContext(ctx,
		`INSERT INTO film_likes (film_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, filmID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add like: %w", mapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresFilmLikeStore) Remove(ctx context.Context, filmID, userID int64) (bool, error) {
	result, err := s.ext(ctx).ExecContext(ctx,
		`DELETE FROM film_likes WHERE film_id = $1 AND user_id = $2`, filmID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove like: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresFilmLikeStore) CountByFilmIDs(ctx context.Context, filmIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(filmIDs))
	if len(filmIDs) == 0 {
		return out, nil
	}
	query := `SELECT film_id, COUNT(user_id) AS likes
              FROM film_likes
              WHERE film_id = ANY($1)
              GROUP BY film_id`
	var rows []FilmLikes
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &rows, query, pq.Array(filmIDs)); err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	for _, r := range rows {
		out[r.FilmID] = r.Likes
	}
	return out, nil
}

func (s *PostgresFilmLikeStore) Popular(ctx context.Context, limit int) ([]FilmLikes, error) {
	query := `SELECT film_id, COUNT(user_id) AS likes
              FROM film_likes
              GROUP BY film_id
              HAVING COUNT(user_id) > 0
              ORDER BY likes DESC, film_id ASC
              LIMIT $1`
	rows := []FilmLikes{}
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &rows, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Failed to query popular films", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query popular films: %w", err)
	}
	return rows, nil
}

// PostgresFriendshipStore реализует FriendshipStore.
type PostgresFriendshipStore struct {
	pgBase
}

func (s *PostgresFriendshipStore) Add(ctx context.Context, userID, friendID int64) error {
	_, err := s.ext(ctx).ExecContext(ctx,
		`INSERT INTO friendship (user_id, friend_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to add friend: %w", mapError(err))
	}
	return nil
}

func (s *PostgresFriendshipStore) Remove(ctx context.Context, userID, friendID int64) error {
	_, err := s.ext(ctx).ExecContext(ctx,
		`DELETE FROM friendship WHERE user_id = $1 AND friend_id = $2`, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	return nil
}

func (s *PostgresFriendshipStore) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := sqlx.SelectContext(ctx, s.ext(ctx), &ids,
		`SELECT friend_id FROM friendship WHERE user_id = $1 ORDER BY friend_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend ids: %w", err)
	}
	return ids, nil
}

// CommonFriendIDs пересечение исходящих ребер двух пользователей (self-join).
func (s *PostgresFriendshipStore) CommonFriendIDs(ctx context.Context, userID, otherID int64) ([]int64, error) {
	query := `SELECT f1.friend_id
              FROM friendship f1
              JOIN friendship f2 ON f2.friend_id = f1.friend_id
              WHERE f1.user_id = $1 AND f2.user_id = $2
              ORDER BY f1.friend_id`
	ids := []int64{}
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &ids, query, userID, otherID); err != nil {
		return nil, fmt.Errorf("failed to get common friend ids: %w", err)
	}
	return ids, nil
}

// PostgresGenreStore реализует GenreStore.
type PostgresGenreStore struct {
	pgBase
}

func (s *PostgresGenreStore) List(ctx context.Context) ([]domain.Genre, error) {
	genres := []domain.Genre{}
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &genres, `SELECT id, name FROM genres ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}

// PostgresRatingMpaaStore реализует RatingMpaaStore.
type PostgresRatingMpaaStore struct {
	pgBase
}

func (s *PostgresRatingMpaaStore) List(ctx context.Context) ([]domain.RatingMpaa, error) {
	ratings := []domain.RatingMpaa{}
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &ratings, `SELECT id, name FROM rating_mpaa ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return ratings, nil
}
