package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Renderer produces the receipt/invoice document for an order.
type Renderer interface {
	Render(ctx context.Context, customerID, orderID string, expiry time.Time, sumCents int) ([]byte, error)
}

// HTTPRenderer calls the external document renderer and returns its
// bytes unchanged.
type HTTPRenderer struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPRenderer(baseURL string, timeout time.Duration) *HTTPRenderer {
	return &HTTPRenderer{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	CustomerID string    `json:"customer_id"`
	OrderID    string    `json:"order_id"`
	ExpiryDate time.Time `json:"expiry_date"`
	SumCents   int       `json:"sum_cents"`
}

func (r *HTTPRenderer) Render(ctx context.Context, customerID, orderID string, expiry time.Time, sumCents int) ([]byte, error) {
	body, err := json.Marshal(renderRequest{
		CustomerID: customerID,
		OrderID:    orderID,
		ExpiryDate: expiry,
		SumCents:   sumCents,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("renderer: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
