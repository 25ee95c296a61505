package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"filmorate/internal/domain"
	"filmorate/internal/metrics"
	"filmorate/internal/store"
)

// FilmService правила работы с фильмами, их жанрами и лайками.
type FilmService struct {
	films      store.FilmStore
	filmGenres store.FilmGenreStore
	likes      store.FilmLikeStore
	tx         store.TxManager
	genres     *GenreService
	ratings    *RatingMpaaService
	users      *UserService
	logger     *slog.Logger
}

func NewFilmService(stores *store.Stores, genres *GenreService, ratings *RatingMpaaService, users *UserService, logger *slog.Logger) *FilmService {
	return &FilmService{
		films:      stores.Films,
		filmGenres: stores.FilmGenres,
		likes:      stores.Likes,
		tx:         stores.Tx,
		genres:     genres,
		ratings:    ratings,
		users:      users,
		logger:     logger,
	}
}

func validateReleaseDate(date domain.Date) error {
	if date.BeforeDate(domain.MovieBirthday) {
		return domain.NewValidationError("releaseDate",
			"release date must not be earlier than "+domain.MovieBirthday.String(), date.String())
	}
	return nil
}

func filmNotFound(id int64) error {
	return domain.NotFoundf("film with id %d not found", id)
}

// Create сохраняет фильм вместе с жанрами в одной транзакции.
func (s *FilmService) Create(ctx context.Context, req domain.NewFilmRequest) (domain.FilmDto, error) {
	film := domain.NewFilmFromRequest(req)
	if err := validateReleaseDate(film.ReleaseDate); err != nil {
		return domain.FilmDto{}, err
	}

	rating, err := s.ratings.FindByID(ctx, film.Mpa.ID)
	if err != nil {
		return domain.FilmDto{}, err
	}
	film.Mpa = rating

	genres, err := s.genres.ResolveGenres(ctx, domain.UniqueGenreIDs(req.Genres))
	if err != nil {
		return domain.FilmDto{}, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.films.Create(ctx, film); err != nil {
			return fmt.Errorf("failed to create film: %w", err)
		}
		if len(genres) > 0 {
			if err := s.filmGenres.ReplaceForFilm(ctx, film.ID, genreIDs(genres)); err != nil {
				return fmt.Errorf("failed to save film genres: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.FilmDto{}, err
	}

	s.logger.InfoContext(ctx, "Film created", slog.Int64("filmID", film.ID), slog.String("name", film.Name))
	return domain.FilmToDto(film, genres, 0), nil
}

// Update применяет переданные поля. Переданный список genres, в том числе пустой, заменяет жанры целиком.
func (s *FilmService) Update(ctx context.Context, req domain.UpdateFilmRequest) (domain.FilmDto, error) {
	if req.ReleaseDate != nil {
		if err := validateReleaseDate(*req.ReleaseDate); err != nil {
			return domain.FilmDto{}, err
		}
	}

	var rating *domain.RatingMpaa
	if req.Mpa != nil {
		r, err := s.ratings.FindByID(ctx, req.Mpa.ID)
		if err != nil {
			return domain.FilmDto{}, err
		}
		rating = &r
	}

	var newGenres []domain.Genre
	if req.Genres != nil {
		var err error
		newGenres, err = s.genres.ResolveGenres(ctx, domain.UniqueGenreIDs(req.Genres))
		if err != nil {
			return domain.FilmDto{}, err
		}
	}

	var dto domain.FilmDto
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		film, err := s.getFilm(ctx, req.ID)
		if err != nil {
			return err
		}
		domain.ApplyFilmUpdate(film, req)
		if rating != nil {
			film.Mpa = *rating
		}
		if err := s.films.Update(ctx, film); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return filmNotFound(req.ID)
			}
			return fmt.Errorf("failed to update film: %w", err)
		}
		if req.Genres != nil {
			if err := s.filmGenres.ReplaceForFilm(ctx, film.ID, genreIDs(newGenres)); err != nil {
				return fmt.Errorf("failed to replace film genres: %w", err)
			}
		}
		dtos, err := s.assemble(ctx, []*domain.Film{film}, nil)
		if err != nil {
			return err
		}
		dto = dtos[0]
		return nil
	})
	if err != nil {
		return domain.FilmDto{}, err
	}

	s.logger.InfoContext(ctx, "Film updated", slog.Int64("filmID", dto.ID))
	return dto, nil
}

func (s *FilmService) getFilm(ctx context.Context, id int64) (*domain.Film, error) {
	film, err := s.films.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, filmNotFound(id)
		}
		return nil, fmt.Errorf("failed to get film: %w", err)
	}
	return film, nil
}

func (s *FilmService) FindByID(ctx context.Context, id int64) (domain.FilmDto, error) {
	film, err := s.getFilm(ctx, id)
	if err != nil {
		return domain.FilmDto{}, err
	}
	dtos, err := s.assemble(ctx, []*domain.Film{film}, nil)
	if err != nil {
		return domain.FilmDto{}, err
	}
	return dtos[0], nil
}

func (s *FilmService) FindAll(ctx context.Context) ([]domain.FilmDto, error) {
	films, err := s.films.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list films: %w", err)
	}
	return s.assemble(ctx, films, nil)
}

func (s *FilmService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.films.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return filmNotFound(id)
		}
		return fmt.Errorf("failed to delete film: %w", err)
	}
	s.logger.InfoContext(ctx, "Film deleted", slog.Int64("filmID", id))
	return nil
}

// CheckExists возвращает NotFoundError, если фильма нет.
func (s *FilmService) CheckExists(ctx context.Context, id int64) error {
	exists, err := s.films.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check film existence: %w", err)
	}
	if !exists {
		return filmNotFound(id)
	}
	return nil
}

// LikeFilm ставит лайк; повторный лайк того же пользователя считается ошибкой валидации.
func (s *FilmService) LikeFilm(ctx context.Context, filmID, userID int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.CheckExists(ctx, filmID); err != nil {
			return err
		}
		if err := s.users.CheckExists(ctx, userID); err != nil {
			return err
		}
		added, err := s.likes.Add(ctx, filmID, userID)
		if err != nil {
			return fmt.Errorf("failed to add like: %w", err)
		}
		if !added {
			return domain.NewValidationError("likes",
				fmt.Sprintf("user %d has already liked film %d", userID, filmID), userID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	metrics.RecordLike("add")
	s.logger.InfoContext(ctx, "Film liked", slog.Int64("filmID", filmID), slog.Int64("userID", userID))
	return nil
}

func (s *FilmService) UnlikeFilm(ctx context.Context, filmID, userID int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.CheckExists(ctx, filmID); err != nil {
			return err
		}
		if err := s.users.CheckExists(ctx, userID); err != nil {
			return err
		}
		removed, err := s.likes.Remove(ctx, filmID, userID)
		if err != nil {
			return fmt.Errorf("failed to remove like: %w", err)
		}
		if !removed {
			return domain.NotFoundf("like of user %d for film %d not found", userID, filmID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	metrics.RecordLike("remove")
	s.logger.InfoContext(ctx, "Film unliked", slog.Int64("filmID", filmID), slog.Int64("userID", userID))
	return nil
}

// GetTopPopularFilms возвращает до count фильмов с лайками по убыванию их числа.
func (s *FilmService) GetTopPopularFilms(ctx context.Context, count int) ([]domain.FilmDto, error) {
	if count <= 0 {
		return nil, domain.NewValidationError("count", "count must be positive", count)
	}

	ranking, err := s.likes.Popular(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("failed to rank films: %w", err)
	}
	if len(ranking) == 0 {
		return []domain.FilmDto{}, nil
	}

	ids := make([]int64, 0, len(ranking))
	likes := make(map[int64]int, len(ranking))
	for _, r := range ranking {
		ids = append(ids, r.FilmID)
		likes[r.FilmID] = r.Likes
	}
	films, err := s.films.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load popular films: %w", err)
	}
	byID := make(map[int64]*domain.Film, len(films))
	for _, f := range films {
		byID[f.ID] = f
	}
	ordered := make([]*domain.Film, 0, len(films))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			ordered = append(ordered, f)
		}
	}
	return s.assemble(ctx, ordered, likes)
}

// assemble собирает DTO пакетными запросами жанров и лайков, без запроса на каждый фильм.
// Если likes передан, счетчики берутся из него.
func (s *FilmService) assemble(ctx context.Context, films []*domain.Film, likes map[int64]int) ([]domain.FilmDto, error) {
	dtos := make([]domain.FilmDto, 0, len(films))
	if len(films) == 0 {
		return dtos, nil
	}
	ids := make([]int64, 0, len(films))
	for _, f := range films {
		ids = append(ids, f.ID)
	}

	genresByFilm, err := s.filmGenres.GenresByFilmIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load film genres: %w", err)
	}
	if likes == nil {
		likes, err = s.likes.CountByFilmIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to count likes: %w", err)
		}
	}

	for _, f := range films {
		if f.Mpa.Name == "" {
			if rating, err := s.ratings.FindByID(ctx, f.Mpa.ID); err == nil {
				f.Mpa = rating
			}
		}
		dtos = append(dtos, domain.FilmToDto(f, genresByFilm[f.ID], likes[f.ID]))
	}
	return dtos, nil
}

func genreIDs(genres []domain.Genre) []int64 {
	ids := make([]int64, 0, len(genres))
	for _, g := range genres {
		ids = append(ids, g.ID)
	}
	return ids
}
