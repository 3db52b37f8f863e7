package lnurl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/InQaaaaGit/lnboost.git/internal/payerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProxyRequester_RequestInvoice(t *testing.T) {
	var gotLn, gotAmount, gotComment string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lnurl/generate-invoice", r.URL.Path)
		gotLn = r.URL.Query().Get("ln")
		gotAmount = r.URL.Query().Get("amount")
		gotComment = r.URL.Query().Get("comment")
		_, _ = w.Write([]byte(`{"invoice":{"pr":"lnbc210n1bob","payment_hash":"abc"}}`))
	}))
	defer srv.Close()

	p := NewProxyRequester(srv.Client(), srv.URL+"/lnurl/generate-invoice", time.Second, zap.NewNop())
	invoice, err := p.RequestInvoice(context.Background(), "bob@example.com", 21000, "hi & bye")
	require.NoError(t, err)

	assert.Equal(t, "lnbc210n1bob", invoice)
	assert.Equal(t, "bob@example.com", gotLn)
	assert.Equal(t, "21000", gotAmount)
	assert.Equal(t, "hi & bye", gotComment)
}

func TestProxyRequester_PassesAddressUnvalidated(t *testing.T) {
	var gotLn string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLn = r.URL.Query().Get("ln")
		http.Error(w, `{"message":"invalid lightning address"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewProxyRequester(srv.Client(), srv.URL, time.Second, zap.NewNop())
	_, err := p.RequestInvoice(context.Background(), "weird address@", 1000, "")

	assert.Equal(t, "weird address@", gotLn)
	assert.ErrorIs(t, err, payerr.ErrProxy)
	assert.NotErrorIs(t, err, payerr.ErrInvalidAddress)

	status, body, ok := payerr.UpstreamBody(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "invalid lightning address")
}

func TestProxyRequester_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no invoice", body: `{"status":"OK"}`},
		{name: "empty pr", body: `{"invoice":{"pr":""}}`},
		{name: "malformed", body: `not json`},
		{name: "empty body", body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewProxyRequester(srv.Client(), srv.URL, time.Second, zap.NewNop())
			_, err := p.RequestInvoice(context.Background(), "bob@example.com", 1000, "")
			assert.ErrorIs(t, err, payerr.ErrProtocol)
		})
	}
}

func TestProxyRequester_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	p := NewProxyRequester(nil, endpoint, time.Second, zap.NewNop())
	_, err := p.RequestInvoice(context.Background(), "bob@example.com", 1000, "")
	assert.ErrorIs(t, err, payerr.ErrProxy)
	assert.NotErrorIs(t, err, payerr.ErrTimeout)
}
