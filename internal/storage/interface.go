package storage

import (
	"context"
	"encoding/json"
)

// LibraryStorage интерфейс для хранилища библиотек пользователей
type LibraryStorage interface {
	// Upsert сохраняет библиотеку пользователя, заменяя предыдущую версию
	Upsert(ctx context.Context, lightningAddress string, library json.RawMessage) error
	// Get получает библиотеку по lightning-адресу владельца.
	// Возвращает ErrLibraryNotFound, если библиотека не сохранялась.
	Get(ctx context.Context, lightningAddress string) (json.RawMessage, error)
	// Close освобождает ресурсы хранилища
	Close() error
}

// DatabaseChecker интерфейс для проверки соединения с базой данных
type DatabaseChecker interface {
	// CheckConnection проверяет соединение с базой данных
	CheckConnection(ctx context.Context) error
}
