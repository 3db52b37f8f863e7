package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/InQaaaaGit/lnboost.git/internal/payerr"
	"github.com/InQaaaaGit/lnboost.git/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAccountLookup struct {
	address string
	err     error
	tokens  []string
}

func (m *mockAccountLookup) Value4Value(ctx context.Context, token string) (string, error) {
	m.tokens = append(m.tokens, token)
	return m.address, m.err
}

func TestLibraryService_SaveAndGet(t *testing.T) {
	accounts := &mockAccountLookup{address: "alice@getalby.com"}
	svc := NewLibraryService(accounts, storage.NewMemoryStorage(zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	library := json.RawMessage(`{"podcasts":["feed-1","feed-2"]}`)
	address, err := svc.SaveLibrary(ctx, "access-token", library)
	require.NoError(t, err)
	assert.Equal(t, "alice@getalby.com", address)
	assert.Equal(t, []string{"access-token"}, accounts.tokens)

	got, err := svc.GetLibrary(ctx, "alice@getalby.com")
	require.NoError(t, err)
	assert.JSONEq(t, string(library), string(got))

	// Повторное сохранение заменяет библиотеку
	_, err = svc.SaveLibrary(ctx, "access-token", json.RawMessage(`{"podcasts":[]}`))
	require.NoError(t, err)
	got, err = svc.GetLibrary(ctx, "alice@getalby.com")
	require.NoError(t, err)
	assert.JSONEq(t, `{"podcasts":[]}`, string(got))
}

func TestLibraryService_SaveLibraryErrors(t *testing.T) {
	tests := []struct {
		name     string
		accounts *mockAccountLookup
		library  json.RawMessage
		wantErr  error
	}{
		{
			name:     "lookup failure",
			accounts: &mockAccountLookup{err: payerr.Status(payerr.ErrUserLookup, 401, nil)},
			library:  json.RawMessage(`{}`),
			wantErr:  payerr.ErrUserLookup,
		},
		{
			name:     "no lightning address",
			accounts: &mockAccountLookup{},
			library:  json.RawMessage(`{}`),
			wantErr:  ErrUserNotFound,
		},
		{
			name:     "invalid library",
			accounts: &mockAccountLookup{address: "alice@getalby.com"},
			library:  json.RawMessage(`{not json`),
			wantErr:  storage.ErrInvalidLibrary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewLibraryService(tt.accounts, storage.NewMemoryStorage(zap.NewNop()), zap.NewNop())
			_, err := svc.SaveLibrary(context.Background(), "token", tt.library)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestLibraryService_GetLibraryNotFound(t *testing.T) {
	svc := NewLibraryService(&mockAccountLookup{}, storage.NewMemoryStorage(zap.NewNop()), zap.NewNop())

	_, err := svc.GetLibrary(context.Background(), "nobody@getalby.com")
	assert.ErrorIs(t, err, storage.ErrLibraryNotFound)
}

func TestLibraryService_CheckConnection(t *testing.T) {
	svc := NewLibraryService(&mockAccountLookup{}, storage.NewMemoryStorage(zap.NewNop()), zap.NewNop())
	assert.NoError(t, svc.CheckConnection(context.Background()))
}
