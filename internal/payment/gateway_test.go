package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGatewayTerminal(t *testing.T) {
	var got TerminalTransaction
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/terminal", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, 2*time.Second)
	err := g.Terminal(context.Background(), TerminalTransaction{
		AmountCents: 9998,
		AccountRef:  "storefront-main",
		InvoiceID:   "inv-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 9998, got.AmountCents)
	assert.Equal(t, "storefront-main", got.AccountRef)
	assert.Equal(t, "inv-1", got.InvoiceID)
}

func TestHTTPGatewayCardDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/card", r.URL.Path)
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, 2*time.Second)
	err := g.Card(context.Background(), CardTransaction{AmountCents: 100, CardNumber: "4111111111111111"})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestHTTPGatewayServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, 2*time.Second)
	err := g.Terminal(context.Background(), TerminalTransaction{AmountCents: 100})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestHTTPGatewayTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	g := NewHTTPGateway(srv.URL, time.Second)
	err := g.Terminal(context.Background(), TerminalTransaction{AmountCents: 100})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}
