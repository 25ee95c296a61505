package domain

// MovieBirthday первый публичный киносеанс; более ранняя дата релиза невалидна.
var MovieBirthday = NewDate(1895, 12, 28)

const (
	// MaxDescriptionLength максимальная длина описания фильма.
	MaxDescriptionLength = 200
)

// Film представляет строку таблицы films.
// Жанры и лайки хранятся в отдельных таблицах и собираются сервисом в FilmDto.
type Film struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Description string     `db:"description"`
	ReleaseDate Date       `db:"release_date"`
	Duration    int        `db:"duration"`
	Mpa         RatingMpaa `db:"-"`
}

// FilmDto фильм в ответах API.
type FilmDto struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ReleaseDate Date       `json:"releaseDate"`
	Duration    int        `json:"duration"`
	Mpa         RatingMpaa `json:"mpa"`
	Genres      []Genre    `json:"genres"`
	LikesCount  int        `json:"likesCount"`
}

// NewFilmRequest тело POST /films.
type NewFilmRequest struct {
	Name        string        `json:"name" validate:"required,notblank"`
	Description string        `json:"description" validate:"required,min=2,max=200"`
	ReleaseDate *Date         `json:"releaseDate" validate:"required"`
	Duration    int           `json:"duration" validate:"required,gt=0"`
	Mpa         *RatingMpaaID `json:"mpa" validate:"required"`
	Genres      []GenreID     `json:"genres" validate:"omitempty,dive"`
}

// UpdateFilmRequest тело PUT /films. Применяются только переданные поля.
// Genres == nil означает "не менять", пустой список очищает жанры фильма.
type UpdateFilmRequest struct {
	ID          int64         `json:"id" validate:"required,gt=0"`
	Name        *string       `json:"name" validate:"omitnil,notblank"`
	Description *string       `json:"description" validate:"omitnil,min=2,max=200"`
	ReleaseDate *Date         `json:"releaseDate"`
	Duration    *int          `json:"duration" validate:"omitnil,gt=0"`
	Mpa         *RatingMpaaID `json:"mpa"`
	Genres      []GenreID     `json:"genres" validate:"omitempty,dive"`
}
