package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinHashCost минимальная стоимость bcrypt для хеша пароля администратора.
const MinHashCost = bcrypt.DefaultCost

// ErrEmptyPassword пустой пароль не хешируется.
var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword генерирует bcrypt хеш пароля администратора, например для ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), MinHashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// ValidatePasswordHash проверяет, что строка из конфигурации является bcrypt хешем
// со стоимостью не ниже MinHashCost.
func ValidatePasswordHash(hash string) error {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return fmt.Errorf("not a bcrypt hash: %w", err)
	}
	if cost < MinHashCost {
		return fmt.Errorf("bcrypt cost %d is below minimum %d", cost, MinHashCost)
	}
	return nil
}

// CheckPasswordHash сравнивает пароль с хешем.
func CheckPasswordHash(password, hashedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
