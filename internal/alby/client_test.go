package alby

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/InQaaaaGit/lnboost.git/internal/models"
	"github.com/InQaaaaGit/lnboost.git/internal/payerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(srv *httptest.Server, timeout time.Duration) *Client {
	return NewClient(srv.Client(), Config{BaseURL: srv.URL + "/", Timeout: timeout}, zap.NewNop())
}

func TestClient_PayInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments/bolt11", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"invoice":"lnbc1"}`, string(body))

		_, _ = w.Write([]byte(`{"payment_hash":"h1","amount":100,"fee":0}`))
	}))
	defer srv.Close()

	outcome, err := newTestClient(srv, time.Second).PayInvoice(context.Background(), "lnbc1", "user-token")
	require.NoError(t, err)
	assert.JSONEq(t, `{"payment_hash":"h1","amount":100,"fee":0}`, string(outcome))
}

func TestClient_PayInvoiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "insufficient balance", status: http.StatusBadRequest, body: `{"error":true,"message":"not enough balance"}`, wantErr: payerr.ErrPayment},
		{name: "unauthorized", status: http.StatusUnauthorized, body: ``, wantErr: payerr.ErrPayment},
		{name: "empty success body", status: http.StatusOK, body: ``, wantErr: payerr.ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv, time.Second).PayInvoice(context.Background(), "lnbc1", "token")
			assert.ErrorIs(t, err, tt.wantErr)

			if tt.status >= 300 {
				status, body, ok := payerr.UpstreamBody(err)
				require.True(t, ok)
				assert.Equal(t, tt.status, status)
				assert.Equal(t, tt.body, body)
			}
		})
	}
}

func TestClient_PayKeysends(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/keysend/multi", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var req struct {
			Keysends []map[string]any `json:"keysends"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Keysends, 2)
		assert.Equal(t, "02abc", req.Keysends[0]["destination"])
		assert.Equal(t, float64(50), req.Keysends[0]["amount"])
		assert.Equal(t, map[string]any{"7629169": "hello"}, req.Keysends[0]["customRecords"])

		_, _ = w.Write([]byte(`{"keysends":[{"keysend":{"destination":"03def"}},{"keysend":{"destination":"02abc"}}]}`))
	}))
	defer srv.Close()

	requests := []models.PaymentRequest{
		{Destination: "02abc", Amount: 50, CustomRecords: map[int64]string{models.CommentRecordType: "hello"}},
		{Destination: "03def", Amount: 60},
	}
	outcomes, err := newTestClient(srv, time.Second).PayKeysends(context.Background(), requests, "token")
	require.NoError(t, err)

	// Порядок определяется ответом сервиса
	require.Len(t, outcomes, 2)
	assert.JSONEq(t, `{"keysend":{"destination":"03def"}}`, string(outcomes[0]))
	assert.JSONEq(t, `{"keysend":{"destination":"02abc"}}`, string(outcomes[1]))
}

func TestClient_PayKeysendsErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: payerr.ErrPayment},
		{name: "missing keysends", status: http.StatusOK, body: `{"status":"ok"}`, wantErr: payerr.ErrProtocol},
		{name: "malformed", status: http.StatusOK, body: `[`, wantErr: payerr.ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv, time.Second).PayKeysends(context.Background(), []models.PaymentRequest{{Destination: "02abc", Amount: 1}}, "token")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Value4Value(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{name: "configured", status: http.StatusOK, body: `{"lightning_address":"alice@getalby.com","keysend_pubkey":"02"}`, want: "alice@getalby.com"},
		{name: "not configured", status: http.StatusOK, body: `{}`, want: ""},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"message":"bad token"}`, wantErr: payerr.ErrUserLookup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/user/value4value", r.URL.Path)
				assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			address, err := newTestClient(srv, time.Second).Value4Value(context.Background(), "token")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, address)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 50*time.Millisecond).PayInvoice(context.Background(), "lnbc1", "token")
	assert.ErrorIs(t, err, payerr.ErrPayment)
	assert.ErrorIs(t, err, payerr.ErrTimeout)
}

func TestClient_NoRetries(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, time.Second).PayInvoice(context.Background(), "lnbc1", "token")
	assert.ErrorIs(t, err, payerr.ErrPayment)
	assert.Equal(t, 1, hits)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(nil, Config{}, zap.NewNop())
	assert.Equal(t, DefaultBaseURL, c.rest.BaseURL)
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Zero(t, c.rest.RetryCount)
}
