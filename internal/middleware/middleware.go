// Package middleware содержит HTTP middleware сервиса: идентификатор запроса,
// логирование, сжатие, ограничение частоты и аутентификацию сессии Alby.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// RequestIDKey используется как ключ для хранения идентификатора запроса в контексте
	RequestIDKey contextKey = "request_id"
	// RequestIDHeader содержит идентификатор запроса
	RequestIDHeader = "X-Request-Id"
)

// RequestID присваивает запросу идентификатор. Идентификатор из заголовка
// используется, только если это корректный UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext возвращает идентификатор запроса или пустую строку
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
