package storage

import "go.uber.org/zap"

// Storage объединяет хранилище библиотек и проверку соединения
type Storage interface {
	LibraryStorage
	DatabaseChecker
}

// New выбирает реализацию хранилища: PostgreSQL, если задан DSN,
// файл, если задан путь, иначе память.
func New(databaseDSN, fileStoragePath string, logger *zap.Logger) (Storage, error) {
	switch {
	case databaseDSN != "":
		logger.Info("Using PostgreSQL storage")
		ps, err := NewPostgresStorage(databaseDSN, logger)
		if err != nil {
			return nil, err
		}
		return ps, nil
	case fileStoragePath != "":
		logger.Info("Using file storage", zap.String("path", fileStoragePath))
		fs, err := NewFileStorage(fileStoragePath, logger)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		logger.Info("Using in-memory storage")
		return NewMemoryStorage(logger), nil
	}
}
