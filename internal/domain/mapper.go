package domain

import (
	"sort"
	"strings"
)

// NewFilmFromRequest строит сущность фильма из запроса на создание.
// Рейтинг заполняется сервисом после проверки существования.
func NewFilmFromRequest(req NewFilmRequest) *Film {
	film := &Film{
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
	}
	if req.ReleaseDate != nil {
		film.ReleaseDate = *req.ReleaseDate
	}
	if req.Mpa != nil {
		film.Mpa = RatingMpaa{ID: req.Mpa.ID}
	}
	return film
}

// ApplyFilmUpdate переносит в фильм только переданные поля запроса.
func ApplyFilmUpdate(film *Film, req UpdateFilmRequest) {
	if req.Name != nil {
		film.Name = *req.Name
	}
	if req.Description != nil {
		film.Description = *req.Description
	}
	if req.ReleaseDate != nil {
		film.ReleaseDate = *req.ReleaseDate
	}
	if req.Duration != nil {
		film.Duration = *req.Duration
	}
	if req.Mpa != nil {
		film.Mpa = RatingMpaa{ID: req.Mpa.ID}
	}
}

// FilmToDto собирает ответ; nil жанры превращаются в пустой список.
func FilmToDto(film *Film, genres []Genre, likes int) FilmDto {
	if genres == nil {
		genres = []Genre{}
	}
	return FilmDto{
		ID:          film.ID,
		Name:        film.Name,
		Description: film.Description,
		ReleaseDate: film.ReleaseDate,
		Duration:    film.Duration,
		Mpa:         film.Mpa,
		Genres:      genres,
		LikesCount:  likes,
	}
}

// UniqueGenreIDs возвращает отсортированные id жанров без повторов.
func UniqueGenreIDs(refs []GenreID) []int64 {
	seen := make(map[int64]struct{}, len(refs))
	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		ids = append(ids, ref.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NewUserFromRequest строит пользователя; email приводится к нижнему регистру,
// пустое имя заменяется логином.
func NewUserFromRequest(req NewUserRequest) *User {
	user := &User{
		Email: NormalizeEmail(req.Email),
		Login: req.Login,
		Name:  req.Name,
	}
	if strings.TrimSpace(user.Name) == "" {
		user.Name = user.Login
	}
	if req.Birthday != nil {
		user.Birthday = *req.Birthday
	}
	return user
}

// ApplyUserUpdate переносит в пользователя только переданные поля запроса.
func ApplyUserUpdate(user *User, req UpdateUserRequest) {
	if req.Email != nil {
		user.Email = NormalizeEmail(*req.Email)
	}
	if req.Login != nil {
		user.Login = *req.Login
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Birthday != nil {
		user.Birthday = *req.Birthday
	}
}

func UserToDto(user *User) UserDto {
	return UserDto{
		ID:       user.ID,
		Email:    user.Email,
		Login:    user.Login,
		Name:     user.Name,
		Birthday: user.Birthday,
	}
}

// UsersToDto сохраняет порядок входного списка.
func UsersToDto(users []*User) []UserDto {
	out := make([]UserDto, 0, len(users))
	for _, u := range users {
		out = append(out, UserToDto(u))
	}
	return out
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
