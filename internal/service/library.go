package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/InQaaaaGit/lnboost.git/internal/storage"
	"go.uber.org/zap"
)

// ErrUserNotFound возвращается, когда у пользователя платежного сервиса нет lightning-адреса
var ErrUserNotFound = errors.New("user not found")

// AccountLookup возвращает lightning-адрес владельца токена
type AccountLookup interface {
	Value4Value(ctx context.Context, token string) (string, error)
}

// LibraryService определяет интерфейс сервиса библиотек
type LibraryService interface {
	SaveLibrary(ctx context.Context, token string, library json.RawMessage) (string, error)
	GetLibrary(ctx context.Context, lightningAddress string) (json.RawMessage, error)
	CheckConnection(ctx context.Context) error
}

// LibraryServiceImpl реализует LibraryService
type LibraryServiceImpl struct {
	accounts AccountLookup
	storage  storage.Storage
	logger   *zap.Logger
}

// NewLibraryService создает новый экземпляр LibraryServiceImpl
func NewLibraryService(accounts AccountLookup, st storage.Storage, logger *zap.Logger) *LibraryServiceImpl {
	return &LibraryServiceImpl{
		accounts: accounts,
		storage:  st,
		logger:   logger,
	}
}

// SaveLibrary сохраняет библиотеку под lightning-адресом владельца токена и возвращает этот адрес
func (s *LibraryServiceImpl) SaveLibrary(ctx context.Context, token string, library json.RawMessage) (string, error) {
	address, err := s.accounts.Value4Value(ctx, token)
	if err != nil {
		return "", fmt.Errorf("lightning address lookup: %w", err)
	}
	if address == "" {
		return "", ErrUserNotFound
	}

	if err := s.storage.Upsert(ctx, address, library); err != nil {
		return "", fmt.Errorf("save library for %s: %w", address, err)
	}

	s.logger.Info("Library saved", zap.String("lightning_address", address))
	return address, nil
}

// GetLibrary получает сохраненную библиотеку
func (s *LibraryServiceImpl) GetLibrary(ctx context.Context, lightningAddress string) (json.RawMessage, error) {
	return s.storage.Get(ctx, lightningAddress)
}

// CheckConnection проверяет соединение с хранилищем
func (s *LibraryServiceImpl) CheckConnection(ctx context.Context) error {
	return s.storage.CheckConnection(ctx)
}
