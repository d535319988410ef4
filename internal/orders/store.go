package orders

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
)

var (
	ErrOrderNotFound    = errors.New("orders: order not found")
	ErrLineItemNotFound = errors.New("orders: line item not found")
	ErrNoOpenOrder      = errors.New("orders: no open order")
	ErrNoRowsAffected   = errors.New("orders: write affected no rows")
	ErrBadTransition    = errors.New("orders: illegal status transition")
)

// CartMutation is the result of an atomic add/remove: the open order
// with its line items, the line that changed, and the item's
// post-mutation stock snapshot.
type CartMutation struct {
	Order *Order
	Line  LineItem
	Item  catalog.Item
}

// Store persists orders and their line items. Mutating operations
// commit the status change and any stock movement in one transaction.
type Store interface {
	GetOpenOrder(ctx context.Context, sessionID string) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByIDWithLineItems(ctx context.Context, id string) (*Order, error)
	GetAll(ctx context.Context) ([]Order, error)
	GetLineItems(ctx context.Context, orderID string) ([]LineItem, error)

	Add(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	Remove(ctx context.Context, id string) error

	MarkCheckout(ctx context.Context, o *Order) error
	MarkPaid(ctx context.Context, o *Order) error
	// MarkCancelled releases the order's reserved stock in the same
	// transaction that flips the status.
	MarkCancelled(ctx context.Context, o *Order) error

	// AddItem reserves one unit of stock and accumulates it onto the
	// session's open order, creating the order if none exists.
	AddItem(ctx context.Context, sessionID, itemID string) (*CartMutation, error)
	// RemoveItem deletes the line for the item and returns its full
	// quantity to stock.
	RemoveItem(ctx context.Context, sessionID, itemID string) (*CartMutation, error)

	// AttachCustomer records the buyer on the session's open order. The
	// order's customer reference stays empty until this is called.
	AttachCustomer(ctx context.Context, sessionID string, c Customer) (*Order, error)
}
