package orders

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *MemStore {
	t.Helper()
	return NewMemStore(nil,
		catalog.Item{ID: "it-sword", Alias: "sword", Name: "Iron Sword", PriceCents: 4999, Stock: 5},
		catalog.Item{ID: "it-arrow", Alias: "arrow", Name: "Arrow Bundle", PriceCents: 499, Stock: 0},
	)
}

func TestAddItemCreatesOpenOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	mut, err := s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, mut.Order.Status)
	assert.Equal(t, "sess-1", mut.Order.SessionID)
	assert.Equal(t, 1, mut.Line.Qty)
	assert.Equal(t, 4999, mut.Line.PriceCents)
	assert.Equal(t, 4, mut.Item.Stock)

	open, err := s.GetOpenOrder(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, mut.Order.ID, open.ID)
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	first, err := s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)
	second, err := s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)

	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, 2, second.Line.Qty)
	assert.Equal(t, 3, second.Item.Stock)

	lines, err := s.GetLineItems(ctx, second.Order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Qty)
}

func TestAddItemOutOfStock(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.AddItem(ctx, "sess-1", "it-arrow")
	assert.ErrorIs(t, err, catalog.ErrOutOfStock)

	// no order may be created by a failed add
	_, err = s.GetOpenOrder(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNoOpenOrder)

	it, err := s.ItemByID(ctx, "it-arrow")
	require.NoError(t, err)
	assert.Equal(t, 0, it.Stock)
}

func TestAddItemUnknownItem(t *testing.T) {
	s := newStore(t)
	_, err := s.AddItem(context.Background(), "sess-1", "it-missing")
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)
}

func TestSingleOpenOrderPerSession(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.AddItem(ctx, "sess-1", "it-sword")
		require.NoError(t, err)
	}

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	open := 0
	for _, o := range all {
		if o.SessionID == "sess-1" && o.Status == StatusOpen {
			open++
		}
	}
	assert.Equal(t, 1, open)
}

func TestRemoveItemReturnsStock(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)
	mutAdd, err := s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)
	require.Equal(t, 3, mutAdd.Item.Stock)

	mut, err := s.RemoveItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)
	assert.Equal(t, 2, mut.Line.Qty)
	assert.Equal(t, 5, mut.Item.Stock)
	assert.Empty(t, mut.Order.Items)

	lines, err := s.GetLineItems(ctx, mut.Order.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRemoveItemErrors(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.RemoveItem(ctx, "sess-1", "it-sword")
	assert.ErrorIs(t, err, ErrNoOpenOrder)

	_, err = s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)
	_, err = s.RemoveItem(ctx, "sess-1", "it-arrow")
	assert.ErrorIs(t, err, ErrLineItemNotFound)
}

func TestMarkPaidSetsTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	mut, err := s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)

	order := mut.Order
	require.NoError(t, s.MarkCheckout(ctx, order))
	assert.Equal(t, StatusCheckout, order.Status)

	require.NoError(t, s.MarkPaid(ctx, order))
	assert.Equal(t, StatusPaid, order.Status)
	require.NotNil(t, order.PaidAt)

	stored, err := s.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, stored.Status)
	assert.NotNil(t, stored.PaidAt)

	// paid orders are terminal for payment transitions
	err = s.MarkCancelled(ctx, order)
	assert.ErrorIs(t, err, ErrBadTransition)
}

func TestMarkCancelledReleasesStock(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)
	mut, err := s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)
	require.Equal(t, 3, mut.Item.Stock)

	require.NoError(t, s.MarkCancelled(ctx, mut.Order))
	assert.Nil(t, mut.Order.PaidAt)

	it, err := s.ItemByID(ctx, "it-sword")
	require.NoError(t, err)
	assert.Equal(t, 5, it.Stock)
}

func TestUpdateAndRemoveReportMissingRows(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	err := s.Update(ctx, &Order{ID: "nope"})
	assert.ErrorIs(t, err, ErrNoRowsAffected)

	err = s.Remove(ctx, "nope")
	assert.ErrorIs(t, err, ErrNoRowsAffected)
}

func TestCancelledSessionCanOpenNewCart(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	mut, err := s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)
	require.NoError(t, s.MarkCancelled(ctx, mut.Order))

	next, err := s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)
	assert.NotEqual(t, mut.Order.ID, next.Order.ID)
	assert.Equal(t, StatusOpen, next.Order.Status)
}

func TestAttachCustomer(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.AttachCustomer(ctx, "sess-1", Customer{ID: "cust-1", Name: "Ann"})
	assert.ErrorIs(t, err, ErrNoOpenOrder)

	mut, err := s.AddItem(ctx, "sess-1", "it-sword")
	require.NoError(t, err)
	assert.Empty(t, mut.Order.CustomerID)

	order, err := s.AttachCustomer(ctx, "sess-1", Customer{ID: "cust-1", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, mut.Order.ID, order.ID)
	assert.Equal(t, "cust-1", order.CustomerID)

	stored, err := s.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", stored.CustomerID)
}

func TestUpdateStock(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	it, err := s.ItemByAlias(ctx, "arrow")
	require.NoError(t, err)
	require.Equal(t, 0, it.Stock)

	it.Stock = 20
	require.NoError(t, s.UpdateStock(ctx, it))

	restocked, err := s.ItemByAlias(ctx, "arrow")
	require.NoError(t, err)
	assert.Equal(t, 20, restocked.Stock)

	missing := catalog.Item{ID: "it-ghost", Stock: 1}
	assert.ErrorIs(t, s.UpdateStock(ctx, &missing), catalog.ErrItemNotFound)
}
