package store

import (
	"context"
	"errors"

	"filmorate/internal/domain"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// FilmStore хранит строки таблицы films.
type FilmStore interface {
	// Create сохраняет фильм и записывает сгенерированный id в film.ID.
	Create(ctx context.Context, film *domain.Film) error
	Update(ctx context.Context, film *domain.Film) error
	GetByID(ctx context.Context, id int64) (*domain.Film, error)
	// ListByIDs возвращает найденные фильмы в порядке возрастания id.
	ListByIDs(ctx context.Context, ids []int64) ([]*domain.Film, error)
	List(ctx context.Context) ([]*domain.Film, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// UserStore хранит строки таблицы users.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// FilmGenreStore связь фильмов и жанров (film_genres).
type FilmGenreStore interface {
	// ReplaceForFilm заменяет набор жанров фильма целиком.
	ReplaceForFilm(ctx context.Context, filmID int64, genreIDs []int64) error
	// GenresByFilmIDs возвращает жанры каждого фильма, отсортированные по id.
	// Фильмы без жанров в карте отсутствуют.
	GenresByFilmIDs(ctx context.Context, filmIDs []int64) (map[int64][]domain.Genre, error)
}

// FilmLikes количество лайков фильма.
type FilmLikes struct {
	FilmID int64 `db:"film_id"`
	Likes  int   `db:"likes"`
}

// FilmLikeStore лайки пользователей (film_likes).
type FilmLikeStore interface {
	// Add возвращает false, если лайк уже существовал.
	Add(ctx context.Context, filmID, userID int64) (bool, error)
	// Remove возвращает false, если лайка не было.
	Remove(ctx context.Context, filmID, userID int64) (bool, error)
	CountByFilmIDs(ctx context.Context, filmIDs []int64) (map[int64]int, error)
	// Popular возвращает фильмы хотя бы с одним лайком по убыванию числа лайков,
	// при равенстве по возрастанию id.
	Popular(ctx context.Context, limit int) ([]FilmLikes, error)
}

// FriendshipStore направленные ребра дружбы (friendship).
type FriendshipStore interface {
	// Add идемпотентен.
	Add(ctx context.Context, userID, friendID int64) error
	// Remove отсутствующего ребра не является ошибкой.
	Remove(ctx context.Context, userID, friendID int64) error
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
	CommonFriendIDs(ctx context.Context, userID, otherID int64) ([]int64, error)
}

// GenreStore справочник жанров. Поиск по id выполняется через кэш сервиса.
type GenreStore interface {
	List(ctx context.Context) ([]domain.Genre, error)
}

// RatingMpaaStore справочник рейтингов MPAA.
type RatingMpaaStore interface {
	List(ctx context.Context) ([]domain.RatingMpaa, error)
}

// TxManager выполняет fn в одной транзакции. Хранилища берут транзакцию из ctx.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores набор хранилищ одного бэкенда.
type Stores struct {
	Films      FilmStore
	Users      UserStore
	FilmGenres FilmGenreStore
	Likes      FilmLikeStore
	Friends    FriendshipStore
	Genres     GenreStore
	Ratings    RatingMpaaStore
	Tx         TxManager
}

// DefaultGenres справочные жанры, которыми заполняется пустая база.
var DefaultGenres = []domain.Genre{
	{ID: 1, Name: "Комедия"},
	{ID: 2, Name: "Драма"},
	{ID: 3, Name: "Мультфильм"},
	{ID: 4, Name: "Триллер"},
	{ID: 5, Name: "Документальный"},
	{ID: 6, Name: "Боевик"},
}

// DefaultRatings справочные рейтинги MPAA.
var DefaultRatings = []domain.RatingMpaa{
	{ID: 1, Name: "G"},
	{ID: 2, Name: "PG"},
	{ID: 3, Name: "PG-13"},
	{ID: 4, Name: "R"},
	{ID: 5, Name: "NC-17"},
}
