package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// PostgresStorage реализует LibraryStorage с использованием PostgreSQL
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStorage создает новый экземпляр PostgresStorage
func NewPostgresStorage(dsn string, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, multierr.Append(
			fmt.Errorf("database connection check error: %w", err),
			db.Close())
	}

	createTableSQL := `CREATE TABLE IF NOT EXISTS libraries (` +
		`lightning_address VARCHAR(320) PRIMARY KEY,` +
		`library JSONB NOT NULL,` +
		`updated_at TIMESTAMPTZ NOT NULL DEFAULT now()` +
		`)`
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return nil, multierr.Append(
			fmt.Errorf("table creation error: %w", err),
			db.Close())
	}

	return &PostgresStorage{
		db:     db,
		logger: logger,
	}, nil
}

// Upsert сохраняет библиотеку, заменяя существующую запись с тем же адресом
func (ps *PostgresStorage) Upsert(ctx context.Context, lightningAddress string, library json.RawMessage) error {
	if lightningAddress == "" {
		return ErrEmptyAddress
	}
	_, err := ps.db.ExecContext(ctx,
		`INSERT INTO libraries (lightning_address, library, updated_at) VALUES ($1, $2, now()) `+
			`ON CONFLICT (lightning_address) DO UPDATE SET library = EXCLUDED.library, updated_at = now()`,
		lightningAddress, string(library))
	if err != nil {
		// 22P02 = invalid_text_representation, тело библиотеки не является JSON
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "22P02" {
			return ErrInvalidLibrary
		}
		return fmt.Errorf("upsert library error: %w", err)
	}
	return nil
}

// Get получает библиотеку по lightning-адресу
func (ps *PostgresStorage) Get(ctx context.Context, lightningAddress string) (json.RawMessage, error) {
	var library []byte
	err := ps.db.QueryRowContext(ctx,
		"SELECT library FROM libraries WHERE lightning_address = $1", lightningAddress).Scan(&library)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLibraryNotFound
		}
		return nil, fmt.Errorf("get library error: %w", err)
	}
	return library, nil
}

// Close закрывает соединение с базой данных
func (ps *PostgresStorage) Close() error {
	return ps.db.Close()
}

// CheckConnection проверяет соединение с базой данных
func (ps *PostgresStorage) CheckConnection(ctx context.Context) error {
	return ps.db.PingContext(ctx)
}
