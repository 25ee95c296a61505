package domain

// Genre жанр фильма из справочника genres.
type Genre struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// RatingMpaa рейтинг MPAA из справочника rating_mpaa.
type RatingMpaa struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// GenreID ссылка на жанр в запросах.
type GenreID struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// RatingMpaaID ссылка на рейтинг в запросах.
type RatingMpaaID struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}
