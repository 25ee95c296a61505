package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound сопоставляется с любым *NotFoundError через errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError нарушение бизнес-правила или правила валидации для конкретного поля.
type ValidationError struct {
	Field         string `json:"field"`
	Message       string `json:"message"`
	RejectedValue any    `json:"rejectedValue,omitempty"`
}

// NewValidationError создает ошибку валидации поля.
func NewValidationError(field, message string, rejected any) *ValidationError {
	return &ValidationError{Field: field, Message: message, RejectedValue: rejected}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NotFoundError запрошенная сущность отсутствует.
type NotFoundError struct {
	Message string
}

// NotFoundf создает NotFoundError с форматированным сообщением.
func NotFoundf(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Errors    []ValidationError `json:"errors,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// NewErrorResponse заполняет timestamp текущим временем.
func NewErrorResponse(message string, errs ...ValidationError) ErrorResponse {
	return ErrorResponse{
		Error:     message,
		Errors:    errs,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
