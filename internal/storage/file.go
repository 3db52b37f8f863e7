package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LibraryRecord represents a record in the file storage
type LibraryRecord struct {
	LightningAddress string          `json:"lightning_address"`
	Library          json.RawMessage `json:"library"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// FileStorage implements LibraryStorage using an append-only JSON lines file
type FileStorage struct {
	filePath  string
	libraries map[string]LibraryRecord
	mutex     sync.RWMutex
	file      *os.File
	logger    *zap.Logger
}

// NewFileStorage creates a new FileStorage instance
func NewFileStorage(filePath string, logger *zap.Logger) (*FileStorage, error) {
	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	fs := &FileStorage{
		filePath:  filePath,
		file:      file,
		libraries: make(map[string]LibraryRecord),
		logger:    logger,
	}

	// Load existing data from file
	if err := fs.loadFromFile(); err != nil {
		logger.Error("Error loading data from file", zap.Error(err))
		// Не возвращаем ошибку: уже прочитанные записи остаются доступны
		return fs, nil
	}
	if err := fs.Compact(); err != nil {
		return nil, err
	}

	return fs, nil
}

// loadFromFile loads data from the file, later records win
func (fs *FileStorage) loadFromFile() error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if _, err := fs.file.Seek(0, 0); err != nil {
		return fmt.Errorf("error seeking to file start: %w", err)
	}

	decoder := json.NewDecoder(fs.file)
	for decoder.More() {
		var record LibraryRecord
		if err := decoder.Decode(&record); err != nil {
			return fmt.Errorf("error decoding record: %w", err)
		}
		fs.libraries[record.LightningAddress] = record
	}

	return nil
}

// Upsert дописывает новую версию библиотеки в файл
func (fs *FileStorage) Upsert(ctx context.Context, lightningAddress string, library json.RawMessage) error {
	if lightningAddress == "" {
		return ErrEmptyAddress
	}
	if !json.Valid(library) {
		return ErrInvalidLibrary
	}
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if fs.file == nil {
		return fmt.Errorf("file is not open")
	}

	record := LibraryRecord{
		LightningAddress: lightningAddress,
		Library:          append(json.RawMessage(nil), library...),
		UpdatedAt:        time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error marshaling library record: %w", err)
	}

	if _, err := fs.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	fs.libraries[lightningAddress] = record
	return nil
}

// Get получает библиотеку по lightning-адресу
func (fs *FileStorage) Get(ctx context.Context, lightningAddress string) (json.RawMessage, error) {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	record, exists := fs.libraries[lightningAddress]
	if !exists {
		return nil, ErrLibraryNotFound
	}
	return append(json.RawMessage(nil), record.Library...), nil
}

// CheckConnection проверяет доступность файла
func (fs *FileStorage) CheckConnection(ctx context.Context) error {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	if fs.file == nil {
		return fmt.Errorf("file is not open")
	}
	return nil
}

// Compact перезаписывает файл, оставляя только последнюю версию каждой библиотеки.
// Новое содержимое пишется во временный файл и заменяет старый переименованием.
func (fs *FileStorage) Compact() error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(fs.filePath), filepath.Base(fs.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	if err := writeRecords(tmp, fs.libraries); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.filePath); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error replacing file: %w", err)
	}

	if err := fs.file.Close(); err != nil {
		fs.logger.Error("Error closing replaced file", zap.Error(err))
	}
	fs.file, err = os.OpenFile(fs.filePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error reopening file: %w", err)
	}
	return nil
}

func writeRecords(file *os.File, libraries map[string]LibraryRecord) error {
	if err := file.Chmod(0644); err != nil {
		return fmt.Errorf("error setting file mode: %w", err)
	}
	for _, record := range libraries {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("error marshaling record: %w", err)
		}
		if _, err := file.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("error writing record: %w", err)
		}
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("error syncing temp file: %w", err)
	}
	return nil
}

// Close закрывает файл
func (fs *FileStorage) Close() error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if fs.file != nil {
		if err := fs.file.Sync(); err != nil {
			fs.logger.Error("Error syncing file before close", zap.Error(err))
		}
		if err := fs.file.Close(); err != nil {
			return fmt.Errorf("error closing file: %w", err)
		}
		fs.file = nil
	}
	return nil
}
