package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MemoryStorage реализует LibraryStorage с использованием памяти
type MemoryStorage struct {
	mu        sync.RWMutex
	libraries map[string]json.RawMessage
	logger    *zap.Logger
}

// NewMemoryStorage создает новый экземпляр MemoryStorage
func NewMemoryStorage(logger *zap.Logger) *MemoryStorage {
	return &MemoryStorage{
		libraries: make(map[string]json.RawMessage),
		logger:    logger,
	}
}

// Upsert сохраняет копию библиотеки в памяти
func (ms *MemoryStorage) Upsert(ctx context.Context, lightningAddress string, library json.RawMessage) error {
	if lightningAddress == "" {
		return ErrEmptyAddress
	}
	if !json.Valid(library) {
		return ErrInvalidLibrary
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.libraries[lightningAddress] = append(json.RawMessage(nil), library...)
	return nil
}

// Get получает библиотеку по lightning-адресу
func (ms *MemoryStorage) Get(ctx context.Context, lightningAddress string) (json.RawMessage, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	library, exists := ms.libraries[lightningAddress]
	if !exists {
		return nil, ErrLibraryNotFound
	}
	return append(json.RawMessage(nil), library...), nil
}

// CheckConnection проверяет доступность хранилища
func (ms *MemoryStorage) CheckConnection(ctx context.Context) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.libraries == nil {
		return fmt.Errorf("storage is not initialized")
	}
	return nil
}

// Close ничего не делает, данные в памяти не требуют освобождения
func (ms *MemoryStorage) Close() error {
	return nil
}
