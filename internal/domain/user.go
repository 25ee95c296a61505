package domain

// User представляет строку таблицы users.
type User struct {
	ID       int64  `db:"id"`
	Email    string `db:"email"`
	Login    string `db:"login"`
	Name     string `db:"name"`
	Birthday Date   `db:"birthday"`
}

// UserDto пользователь в ответах API.
type UserDto struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Login    string `json:"login"`
	Name     string `json:"name"`
	Birthday Date   `json:"birthday"`
}

// NewUserRequest тело POST /users. Пустое имя заменяется логином.
type NewUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Login    string `json:"login" validate:"required,notblank"`
	Name     string `json:"name"`
	Birthday *Date  `json:"birthday" validate:"required"`
}

// UpdateUserRequest тело PUT /users с семантикой частичного обновления.
type UpdateUserRequest struct {
	ID       int64   `json:"id" validate:"required,gt=0"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Login    *string `json:"login" validate:"omitnil,notblank"`
	Name     *string `json:"name" validate:"omitnil,notblank"`
	Birthday *Date   `json:"birthday"`
}
