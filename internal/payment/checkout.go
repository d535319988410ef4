package payment

import (
	"context"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/orders"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result is returned for every checkout attempt, whether the gateway
// accepted or declined. A declined payment is a cancelled order, not
// an error.
type Result struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id,omitempty"`
	SumCents   int    `json:"sum_cents"`
	Paid       bool   `json:"paid"`
}

// CartCache drops a session's cached open-cart summary. Checkout must
// invalidate it once the order leaves the OPEN status, or readers keep
// seeing the settled cart.
type CartCache interface {
	InvalidateOpenCart(ctx context.Context, sessionID string)
}

// Checkout drives the Open -> Paid / Cancelled transition from the
// gateway outcome.
type Checkout struct {
	Store      orders.Store
	Gateway    Gateway
	Renderer   Renderer
	Cache      CartCache
	AccountRef string
	ExpiryDays int
	Log        *zap.Logger
}

func (c *Checkout) ProcessTerminalPayment(ctx context.Context, sessionID string) (*Result, error) {
	order, sum, err := c.beginCheckout(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	gwErr := c.Gateway.Terminal(ctx, TerminalTransaction{
		AmountCents: sum,
		AccountRef:  c.AccountRef,
		InvoiceID:   uuid.NewString(),
	})
	return c.settle(ctx, order, sum, gwErr)
}

func (c *Checkout) ProcessCardPayment(ctx context.Context, sessionID string, card CardDetails) (*Result, error) {
	order, sum, err := c.beginCheckout(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	gwErr := c.Gateway.Card(ctx, CardTransaction{
		AmountCents: sum,
		Holder:      card.Holder,
		CardNumber:  card.CardNumber,
		ExpiryMonth: card.ExpiryMonth,
		ExpiryYear:  card.ExpiryYear,
		CVV:         card.CVV,
	})
	return c.settle(ctx, order, sum, gwErr)
}

func (c *Checkout) beginCheckout(ctx context.Context, sessionID string) (*orders.Order, int, error) {
	order, err := c.Store.GetOpenOrder(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	order.Items, err = c.Store.GetLineItems(ctx, order.ID)
	if err != nil {
		return nil, 0, err
	}
	if err := c.Store.MarkCheckout(ctx, order); err != nil {
		return nil, 0, err
	}
	// The order is no longer OPEN, so any cached cart view is stale.
	if c.Cache != nil {
		c.Cache.InvalidateOpenCart(ctx, order.SessionID)
	}
	return order, order.TotalCents(), nil
}

func (c *Checkout) settle(ctx context.Context, order *orders.Order, sum int, gwErr error) (*Result, error) {
	res := &Result{OrderID: order.ID, CustomerID: order.CustomerID, SumCents: sum}
	if gwErr != nil {
		c.Log.Warn("payment declined, cancelling order",
			zap.String("order_id", order.ID),
			zap.Int("sum_cents", sum),
			zap.Error(gwErr),
		)
		if err := c.Store.MarkCancelled(ctx, order); err != nil {
			return nil, err
		}
		return res, nil
	}
	if err := c.Store.MarkPaid(ctx, order); err != nil {
		return nil, err
	}
	res.Paid = true
	c.Log.Info("order paid",
		zap.String("order_id", order.ID),
		zap.Int("sum_cents", sum),
	)
	return res, nil
}

// IdentifyBuyer attaches the buyer to the session's open order. An
// order carries no customer reference until the shopper identifies
// themselves, typically right before settlement.
func (c *Checkout) IdentifyBuyer(ctx context.Context, sessionID string, buyer orders.Customer) (*orders.Order, error) {
	if buyer.ID == "" {
		buyer.ID = uuid.NewString()
	}
	order, err := c.Store.AttachCustomer(ctx, sessionID, buyer)
	if err != nil {
		return nil, err
	}
	c.Log.Info("buyer identified",
		zap.String("order_id", order.ID),
		zap.String("customer_id", buyer.ID),
	)
	return order, nil
}

// GetReceiptDocument renders the receipt for a settled or open order.
func (c *Checkout) GetReceiptDocument(ctx context.Context, orderID string) ([]byte, error) {
	order, err := c.Store.GetByIDWithLineItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	expiry := time.Now().UTC().AddDate(0, 0, c.ExpiryDays)
	return c.Renderer.Render(ctx, order.CustomerID, order.ID, expiry, order.TotalCents())
}

func (c *Checkout) ListPaymentOptions() []Option {
	return Options()
}

// PaymentOptionsWithOpenOrder pairs the option list with the session's
// open order; fails with orders.ErrNoOpenOrder when there is none.
func (c *Checkout) PaymentOptionsWithOpenOrder(ctx context.Context, sessionID string) (*orders.Order, []Option, error) {
	order, err := c.Store.GetOpenOrder(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	order.Items, err = c.Store.GetLineItems(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}
	return order, Options(), nil
}
