package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"filmorate/internal/domain"
)

// memoryDB общие таблицы in-memory бэкенда. Все хранилища работают поверх одного
// экземпляра, чтобы каскадное удаление затрагивало связанные таблицы.
type memoryDB struct {
	mu      sync.RWMutex
	filmSeq atomic.Int64
	userSeq atomic.Int64

	films      map[int64]domain.Film
	users      map[int64]domain.User
	genres     map[int64]domain.Genre
	ratings    map[int64]domain.RatingMpaa
	filmGenres map[int64]map[int64]struct{} // film -> genres
	likes      map[int64]map[int64]struct{} // film -> users
	friends    map[int64]map[int64]struct{} // user -> friends
}

func newMemoryDB() *memoryDB {
	db := &memoryDB{
		films:      make(map[int64]domain.Film),
		users:      make(map[int64]domain.User),
		genres:     make(map[int64]domain.Genre, len(DefaultGenres)),
		ratings:    make(map[int64]domain.RatingMpaa, len(DefaultRatings)),
		filmGenres: make(map[int64]map[int64]struct{}),
		likes:      make(map[int64]map[int64]struct{}),
		friends:    make(map[int64]map[int64]struct{}),
	}
	for _, g := range DefaultGenres {
		db.genres[g.ID] = g
	}
	for _, r := range DefaultRatings {
		db.ratings[r.ID] = r
	}
	return db
}

// NewMemoryStores создает полный набор in-memory хранилищ над общими таблицами.
func NewMemoryStores(logger *slog.Logger) *Stores {
	db := newMemoryDB()
	return &Stores{
		Films:      &MemoryFilmStore{db: db, logger: logger},
		Users:      &MemoryUserStore{db: db, logger: logger},
		FilmGenres: &MemoryFilmGenreStore{db: db},
		Likes:      &MemoryFilmLikeStore{db: db},
		Friends:    &MemoryFriendshipStore{db: db},
		Genres:     &MemoryGenreStore{db: db},
		Ratings:    &MemoryRatingMpaaStore{db: db},
		Tx:         &MemoryTxManager{},
	}
}

// MemoryTxManager сериализует транзакции одним мьютексом. Отката нет:
// сервисы выполняют все проверки до первой записи.
type MemoryTxManager struct {
	mu sync.Mutex
}

func (m *MemoryTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inMemoryTx(ctx) {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(context.WithValue(ctx, memoryTxKey{}, true))
}

type memoryTxKey struct{}

func inMemoryTx(ctx context.Context) bool {
	v, _ := ctx.Value(memoryTxKey{}).(bool)
	return v
}

func sortedKeys(set map[int64]struct{}) []int64 {
	keys := make([]int64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// --- Films ---

// MemoryFilmStore реализует FilmStore в памяти.
type MemoryFilmStore struct {
	db     *memoryDB
	logger *slog.Logger
}

func (s *MemoryFilmStore) Create(ctx context.Context, film *domain.Film) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	film.ID = s.db.filmSeq.Add(1)
	s.db.films[film.ID] = *film
	s.logger.DebugContext(ctx, "Film stored in memory", slog.Int64("filmID", film.ID))
	return nil
}

func (s *MemoryFilmStore) Update(ctx context.Context, film *domain.Film) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.films[film.ID]; !ok {
		return ErrNotFound
	}
	s.db.films[film.ID] = *film
	return nil
}

func (s *MemoryFilmStore) GetByID(ctx context.Context, id int64) (*domain.Film, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	film, ok := s.db.films[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &film, nil
}

func (s *MemoryFilmStore) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Film, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]*domain.Film, 0, len(ids))
	for _, id := range ids {
		if film, ok := s.db.films[id]; ok {
			out = append(out, &film)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryFilmStore) List(ctx context.Context) ([]*domain.Film, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]*domain.Film, 0, len(s.db.films))
	for _, film := range s.db.films {
		film := film
		out = append(out, &film)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryFilmStore) Delete(ctx context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.films[id]; !ok {
		return ErrNotFound
	}
	delete(s.db.films, id)
	delete(s.db.filmGenres, id)
	delete(s.db.likes, id)
	return nil
}

func (s *MemoryFilmStore) Exists(ctx context.Context, id int64) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, ok := s.db.films[id]
	return ok, nil
}

// --- Users ---

// MemoryUserStore реализует UserStore в памяти. Уникальность email
// проверяется так же, как ограничение UNIQUE в PostgreSQL.
type MemoryUserStore struct {
	db     *memoryDB
	logger *slog.Logger
}

func (s *MemoryUserStore) emailTaken(email string, exceptID int64) bool {
	for id, u := range s.db.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryUserStore) Create(ctx context.Context, user *domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.emailTaken(user.Email, 0) {
		s.logger.WarnContext(ctx, "User email already taken in memory store", slog.String("email", user.Email))
		return ErrAlreadyExists
	}
	user.ID = s.db.userSeq.Add(1)
	s.db.users[user.ID] = *user
	return nil
}

func (s *MemoryUserStore) Update(ctx context.Context, user *domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[user.ID]; !ok {
		return ErrNotFound
	}
	if s.emailTaken(user.Email, user.ID) {
		return ErrAlreadyExists
	}
	s.db.users[user.ID] = *user
	return nil
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	user, ok := s.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, u := range s.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) ListByIDs(ctx context.Context, ids []int64) ([]*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.db.users[id]; ok {
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryUserStore) List(ctx context.Context) ([]*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]*domain.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryUserStore) Delete(ctx context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.db.users, id)
	delete(s.db.friends, id)
	for _, friends := range s.db.friends {
		delete(friends, id)
	}
	for _, likers := range s.db.likes {
		delete(likers, id)
	}
	return nil
}

func (s *MemoryUserStore) Exists(ctx context.Context, id int64) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, ok := s.db.users[id]
	return ok, nil
}

// --- Film genres ---

type MemoryFilmGenreStore struct {
	db *memoryDB
}

func (s *MemoryFilmGenreStore) ReplaceForFilm(ctx context.Context, filmID int64, genreIDs []int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if len(genreIDs) == 0 {
		delete(s.db.filmGenres, filmID)
		return nil
	}
	set := make(map[int64]struct{}, len(genreIDs))
	for _, id := range genreIDs {
		set[id] = struct{}{}
	}
	s.db.filmGenres[filmID] = set
	return nil
}

func (s *MemoryFilmGenreStore) GenresByFilmIDs(ctx context.Context, filmIDs []int64) (map[int64][]domain.Genre, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make(map[int64][]domain.Genre, len(filmIDs))
	for _, filmID := range filmIDs {
		set, ok := s.db.filmGenres[filmID]
		if !ok || len(set) == 0 {
			continue
		}
		genres := make([]domain.Genre, 0, len(set))
		for _, genreID := range sortedKeys(set) {
			if g, ok := s.db.genres[genreID]; ok {
				genres = append(genres, g)
			}
		}
		out[filmID] = genres
	}
	return out, nil
}

// --- Likes ---

type MemoryFilmLikeStore struct {
	db *memoryDB
}

func (s *MemoryFilmLikeStore) Add(ctx context.Context, filmID, userID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	likers, ok := s.db.likes[filmID]
	if !ok {
		likers = make(map[int64]struct{})
		s.db.likes[filmID] = likers
	}
	if _, exists := likers[userID]; exists {
		return false, nil
	}
	likers[userID] = struct{}{}
	return true, nil
}

func (s *MemoryFilmLikeStore) Remove(ctx context.Context, filmID, userID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	likers, ok := s.db.likes[filmID]
	if !ok {
		return false, nil
	}
	if _, exists := likers[userID]; !exists {
		return false, nil
	}
	delete(likers, userID)
	return true, nil
}

func (s *MemoryFilmLikeStore) CountByFilmIDs(ctx context.Context, filmIDs []int64) (map[int64]int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make(map[int64]int, len(filmIDs))
	for _, id := range filmIDs {
		if n := len(s.db.likes[id]); n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (s *MemoryFilmLikeStore) Popular(ctx context.Context, limit int) ([]FilmLikes, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	ranking := make([]FilmLikes, 0, len(s.db.likes))
	for filmID, likers := range s.db.likes {
		if len(likers) > 0 {
			ranking = append(ranking, FilmLikes{FilmID: filmID, Likes: len(likers)})
		}
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Likes != ranking[j].Likes {
			return ranking[i].Likes > ranking[j].Likes
		}
		return ranking[i].FilmID < ranking[j].FilmID
	})
	if limit >= 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// --- Friendship ---

type MemoryFriendshipStore struct {
	db *memoryDB
}

func (s *MemoryFriendshipStore) Add(ctx context.Context, userID, friendID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	friends, ok := s.db.friends[userID]
	if !ok {
		friends = make(map[int64]struct{})
		s.db.friends[userID] = friends
	}
	friends[friendID] = struct{}{}
	return nil
}

func (s *MemoryFriendshipStore) Remove(ctx context.Context, userID, friendID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.friends[userID], friendID)
	return nil
}

func (s *MemoryFriendshipStore) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return sortedKeys(s.db.friends[userID]), nil
}

func (s *MemoryFriendshipStore) CommonFriendIDs(ctx context.Context, userID, otherID int64) ([]int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	other := s.db.friends[otherID]
	common := make(map[int64]struct{})
	for id := range s.db.friends[userID] {
		if _, ok := other[id]; ok {
			common[id] = struct{}{}
		}
	}
	return sortedKeys(common), nil
}

// --- Reference tables ---

type MemoryGenreStore struct {
	db *memoryDB
}

func (s *MemoryGenreStore) List(ctx context.Context) ([]domain.Genre, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]domain.Genre, 0, len(s.db.genres))
	for _, g := range s.db.genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type MemoryRatingMpaaStore struct {
	db *memoryDB
}

func (s *MemoryRatingMpaaStore) List(ctx context.Context) ([]domain.RatingMpaa, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]domain.RatingMpaa, 0, len(s.db.ratings))
	for _, r := range s.db.ratings {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
