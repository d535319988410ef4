package payment

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGateway struct {
	err       error
	terminals []TerminalTransaction
	cards     []CardTransaction
}

func (g *stubGateway) Terminal(_ context.Context, tx TerminalTransaction) error {
	g.terminals = append(g.terminals, tx)
	return g.err
}

func (g *stubGateway) Card(_ context.Context, tx CardTransaction) error {
	g.cards = append(g.cards, tx)
	return g.err
}

type stubRenderer struct {
	doc        []byte
	customerID string
	orderID    string
	expiry     time.Time
	sumCents   int
}

func (r *stubRenderer) Render(_ context.Context, customerID, orderID string, expiry time.Time, sumCents int) ([]byte, error) {
	r.customerID, r.orderID, r.expiry, r.sumCents = customerID, orderID, expiry, sumCents
	return r.doc, nil
}

func setup(t *testing.T, gwErr error) (*Checkout, *cart.Service, *orders.MemStore, *stubGateway) {
	t.Helper()
	store := orders.NewMemStore(nil,
		catalog.Item{ID: "it-sword", Alias: "sword", Name: "Iron Sword", PriceCents: 4999, Stock: 5},
		catalog.Item{ID: "it-shield", Alias: "shield", Name: "Oak Shield", PriceCents: 2999, Stock: 8},
	)
	gw := &stubGateway{err: gwErr}
	co := &Checkout{
		Store:      store,
		Gateway:    gw,
		Renderer:   &stubRenderer{doc: []byte("receipt")},
		AccountRef: "storefront-main",
		ExpiryDays: 14,
		Log:        zap.NewNop(),
	}
	crt := &cart.Service{Catalog: store, Store: store, Log: zap.NewNop()}
	return co, crt, store, gw
}

// memCartCache stands in for the shared open-cart cache, caching on
// read like the production client.
type memCartCache struct {
	entries map[string][]cart.LineItemSummary
}

func newMemCartCache() *memCartCache {
	return &memCartCache{entries: map[string][]cart.LineItemSummary{}}
}

func (c *memCartCache) GetOpenCart(_ context.Context, sessionID string) ([]cart.LineItemSummary, bool) {
	lines, ok := c.entries[sessionID]
	return lines, ok
}

func (c *memCartCache) SetOpenCart(_ context.Context, sessionID string, lines []cart.LineItemSummary) {
	c.entries[sessionID] = lines
}

func (c *memCartCache) InvalidateOpenCart(_ context.Context, sessionID string) {
	delete(c.entries, sessionID)
}

func TestSettlementInvalidatesCachedCart(t *testing.T) {
	ctx := context.Background()

	t.Run("paid order", func(t *testing.T) {
		co, crt, _, _ := setup(t, nil)
		cache := newMemCartCache()
		crt.Cache, co.Cache = cache, cache

		_, err := crt.AddItemToOrder(ctx, "sess-1", "sword")
		require.NoError(t, err)

		lines, err := crt.GetOpenCartDetails(ctx, "sess-1")
		require.NoError(t, err)
		require.Len(t, lines, 1)
		_, ok := cache.GetOpenCart(ctx, "sess-1")
		require.True(t, ok)

		res, err := co.ProcessTerminalPayment(ctx, "sess-1")
		require.NoError(t, err)
		require.True(t, res.Paid)

		lines, err = crt.GetOpenCartDetails(ctx, "sess-1")
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("declined order", func(t *testing.T) {
		co, crt, _, _ := setup(t, ErrGatewayUnavailable)
		cache := newMemCartCache()
		crt.Cache, co.Cache = cache, cache

		_, err := crt.AddItemToOrder(ctx, "sess-1", "shield")
		require.NoError(t, err)
		_, err = crt.GetOpenCartDetails(ctx, "sess-1")
		require.NoError(t, err)

		res, err := co.ProcessTerminalPayment(ctx, "sess-1")
		require.NoError(t, err)
		require.False(t, res.Paid)

		lines, err := crt.GetOpenCartDetails(ctx, "sess-1")
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}

func TestIdentifyBuyer(t *testing.T) {
	ctx := context.Background()
	co, crt, _, _ := setup(t, nil)

	t.Run("no open order", func(t *testing.T) {
		_, err := co.IdentifyBuyer(ctx, "sess-none", orders.Customer{Name: "Ann"})
		assert.ErrorIs(t, err, orders.ErrNoOpenOrder)
	})

	t.Run("buyer carried through settlement", func(t *testing.T) {
		rec, err := crt.AddItemToOrder(ctx, "sess-1", "sword")
		require.NoError(t, err)

		order, err := co.IdentifyBuyer(ctx, "sess-1", orders.Customer{ID: "cust-7", Name: "Ann"})
		require.NoError(t, err)
		assert.Equal(t, rec.OrderID, order.ID)
		assert.Equal(t, "cust-7", order.CustomerID)

		res, err := co.ProcessCardPayment(ctx, "sess-1", validCard())
		require.NoError(t, err)
		assert.Equal(t, "cust-7", res.CustomerID)
	})

	t.Run("blank id gets generated", func(t *testing.T) {
		_, err := crt.AddItemToOrder(ctx, "sess-2", "shield")
		require.NoError(t, err)
		order, err := co.IdentifyBuyer(ctx, "sess-2", orders.Customer{Name: "Ben"})
		require.NoError(t, err)
		assert.NotEmpty(t, order.CustomerID)
	})
}

func TestProcessCardPaymentSuccess(t *testing.T) {
	ctx := context.Background()
	co, crt, store, gw := setup(t, nil)

	_, err := crt.AddItemToOrder(ctx, "sess-1", "sword")
	require.NoError(t, err)
	rec, err := crt.AddItemToOrder(ctx, "sess-1", "sword")
	require.NoError(t, err)

	res, err := co.ProcessCardPayment(ctx, "sess-1", validCard())
	require.NoError(t, err)
	assert.Equal(t, rec.OrderID, res.OrderID)
	assert.Equal(t, 2*4999, res.SumCents)
	assert.True(t, res.Paid)

	require.Len(t, gw.cards, 1)
	assert.Equal(t, 2*4999, gw.cards[0].AmountCents)
	assert.Equal(t, "4111111111111111", gw.cards[0].CardNumber)

	order, err := store.GetByID(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, order.Status)
	require.NotNil(t, order.PaidAt)
}

func TestProcessTerminalPaymentFailureCancels(t *testing.T) {
	ctx := context.Background()
	co, crt, store, gw := setup(t, ErrGatewayUnavailable)

	rec, err := crt.AddItemToOrder(ctx, "sess-1", "shield")
	require.NoError(t, err)

	res, err := co.ProcessTerminalPayment(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, rec.OrderID, res.OrderID)
	assert.Equal(t, 2999, res.SumCents)
	assert.False(t, res.Paid)

	require.Len(t, gw.terminals, 1)
	assert.Equal(t, "storefront-main", gw.terminals[0].AccountRef)
	assert.NotEmpty(t, gw.terminals[0].InvoiceID)

	order, err := store.GetByID(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, order.Status)
	assert.Nil(t, order.PaidAt)

	// cancellation releases the reservation
	it, err := store.ItemByAlias(ctx, "shield")
	require.NoError(t, err)
	assert.Equal(t, 8, it.Stock)
}

func TestProcessPaymentWithoutOpenOrder(t *testing.T) {
	co, _, _, _ := setup(t, nil)
	_, err := co.ProcessTerminalPayment(context.Background(), "sess-none")
	assert.ErrorIs(t, err, orders.ErrNoOpenOrder)
}

func TestPaidOrderDoesNotBlockNewCart(t *testing.T) {
	ctx := context.Background()
	co, crt, store, _ := setup(t, nil)

	// pay for two swords
	_, err := crt.AddItemToOrder(ctx, "sess-1", "sword")
	require.NoError(t, err)
	_, err = crt.AddItemToOrder(ctx, "sess-1", "sword")
	require.NoError(t, err)
	res, err := co.ProcessCardPayment(ctx, "sess-1", validCard())
	require.NoError(t, err)
	require.True(t, res.Paid)

	it, err := store.ItemByAlias(ctx, "sword")
	require.NoError(t, err)
	assert.Equal(t, 3, it.Stock)

	// a fresh add opens a new cart; removing from it restores stock
	rec, err := crt.AddItemToOrder(ctx, "sess-1", "shield")
	require.NoError(t, err)
	assert.NotEqual(t, res.OrderID, rec.OrderID)

	require.NoError(t, crt.RemoveItemFromOrder(ctx, "sess-1", "shield"))
	shield, err := store.ItemByAlias(ctx, "shield")
	require.NoError(t, err)
	assert.Equal(t, 8, shield.Stock)

	lines, err := crt.GetOpenCartDetails(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestGetReceiptDocument(t *testing.T) {
	ctx := context.Background()
	co, crt, _, _ := setup(t, nil)
	rend := co.Renderer.(*stubRenderer)

	rec, err := crt.AddItemToOrder(ctx, "sess-1", "sword")
	require.NoError(t, err)

	doc, err := co.GetReceiptDocument(ctx, rec.OrderID)
	require.NoError(t, err)
	assert.Equal(t, []byte("receipt"), doc)
	assert.Equal(t, rec.OrderID, rend.orderID)
	assert.Equal(t, 4999, rend.sumCents)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 14), rend.expiry, time.Minute)

	_, err = co.GetReceiptDocument(ctx, "order-unknown")
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestPaymentOptions(t *testing.T) {
	ctx := context.Background()
	co, crt, _, _ := setup(t, nil)

	opts := co.ListPaymentOptions()
	require.Len(t, opts, 2)
	assert.NotEmpty(t, opts[0].Title)

	_, _, err := co.PaymentOptionsWithOpenOrder(ctx, "sess-1")
	assert.ErrorIs(t, err, orders.ErrNoOpenOrder)

	_, err = crt.AddItemToOrder(ctx, "sess-1", "sword")
	require.NoError(t, err)

	order, opts, err := co.PaymentOptionsWithOpenOrder(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, 4999, order.TotalCents())
}
