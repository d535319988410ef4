package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrGatewayUnavailable covers both transport failures and declined
// responses; the checkout flow treats them identically.
var ErrGatewayUnavailable = errors.New("payment: gateway unavailable")

type TerminalTransaction struct {
	AmountCents int    `json:"amount"`
	AccountRef  string `json:"account_ref"`
	InvoiceID   string `json:"invoice_id"`
}

type CardTransaction struct {
	AmountCents int    `json:"amount"`
	Holder      string `json:"holder"`
	CardNumber  string `json:"card_number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         int    `json:"cvv"`
}

type Gateway interface {
	Terminal(ctx context.Context, tx TerminalTransaction) error
	Card(ctx context.Context, tx CardTransaction) error
}

// HTTPGateway makes exactly one call per invocation; no retries.
type HTTPGateway struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) Terminal(ctx context.Context, tx TerminalTransaction) error {
	return g.post(ctx, "/payments/terminal", tx)
}

func (g *HTTPGateway) Card(ctx context.Context, tx CardTransaction) error {
	return g.post(ctx, "/payments/card", tx)
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	return nil
}
