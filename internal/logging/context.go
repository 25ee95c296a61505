package logging

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// RequestIDHeader заголовок, в котором передается идентификатор запроса.
const RequestIDHeader = "X-Request-ID"

// WithRequestID кладет идентификатор запроса в контекст.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID возвращает идентификатор запроса или пустую строку.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NewRequestID генерирует новый идентификатор.
func NewRequestID() string {
	return uuid.NewString()
}
