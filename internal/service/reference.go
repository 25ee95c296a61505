package service

import (
	"context"
	"fmt"
	"log/slog"

	"filmorate/internal/cache"
	"filmorate/internal/domain"
	"filmorate/internal/store"
)

// GenreService отдает справочник жанров через read-through кэш.
type GenreService struct {
	cache  *cache.Reference[domain.Genre]
	logger *slog.Logger
}

func NewGenreService(genres store.GenreStore, logger *slog.Logger) *GenreService {
	return &GenreService{
		cache:  cache.NewReference("genres", func(g domain.Genre) int64 { return g.ID }, genres.List),
		logger: logger,
	}
}

func (s *GenreService) FindAll(ctx context.Context) ([]domain.Genre, error) {
	genres, err := s.cache.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load genres: %w", err)
	}
	return genres, nil
}

func (s *GenreService) FindByID(ctx context.Context, id int64) (domain.Genre, error) {
	genre, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		return domain.Genre{}, fmt.Errorf("failed to load genres: %w", err)
	}
	if !ok {
		return domain.Genre{}, domain.NotFoundf("genre with id %d not found", id)
	}
	return genre, nil
}

// ResolveGenres возвращает жанры по id в порядке возрастания id.
// Если хотя бы один id не найден, возвращается NotFoundError со списком всех отсутствующих.
func (s *GenreService) ResolveGenres(ctx context.Context, ids []int64) ([]domain.Genre, error) {
	genres := make([]domain.Genre, 0, len(ids))
	var missing []int64
	for _, id := range ids {
		genre, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load genres: %w", err)
		}
		if !ok {
			missing = append(missing, id)
			continue
		}
		genres = append(genres, genre)
	}
	if len(missing) > 0 {
		s.logger.WarnContext(ctx, "Unknown genre ids requested", slog.Any("ids", missing))
		return nil, domain.NotFoundf("genres with ids %v not found", missing)
	}
	return genres, nil
}

func (s *GenreService) InvalidateCache() {
	s.cache.Invalidate()
}

// RatingMpaaService отдает справочник рейтингов MPAA через read-through кэш.
type RatingMpaaService struct {
	cache  *cache.Reference[domain.RatingMpaa]
	logger *slog.Logger
}

func NewRatingMpaaService(ratings store.RatingMpaaStore, logger *slog.Logger) *RatingMpaaService {
	return &RatingMpaaService{
		cache:  cache.NewReference("rating_mpaa", func(r domain.RatingMpaa) int64 { return r.ID }, ratings.List),
		logger: logger,
	}
}

func (s *RatingMpaaService) FindAll(ctx context.Context) ([]domain.RatingMpaa, error) {
	ratings, err := s.cache.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	return ratings, nil
}

func (s *RatingMpaaService) FindByID(ctx context.Context, id int64) (domain.RatingMpaa, error) {
	rating, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		return domain.RatingMpaa{}, fmt.Errorf("failed to load ratings: %w", err)
	}
	if !ok {
		return domain.RatingMpaa{}, domain.NotFoundf("rating MPAA with id %d not found", id)
	}
	return rating, nil
}

func (s *RatingMpaaService) InvalidateCache() {
	s.cache.Invalidate()
}
