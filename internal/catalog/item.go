package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrItemNotFound = errors.New("catalog: item not found")
	ErrOutOfStock   = errors.New("catalog: not enough stock")
)

type Item struct {
	ID          string
	Alias       string
	Name        string
	PriceCents  int
	DiscountPct int
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DiscountedPriceCents applies the item discount, rounded down.
func (i Item) DiscountedPriceCents() int {
	return i.PriceCents * (100 - i.DiscountPct) / 100
}

// Source is the catalog lookup used by the cart. Stock mutation happens
// inside the order store transaction, not through this interface.
type Source interface {
	ItemByAlias(ctx context.Context, alias string) (*Item, error)
	ItemByID(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context) ([]Item, error)
}

// StockWriter sets stock levels outside the cart flow (restock, manual
// correction).
type StockWriter interface {
	UpdateStock(ctx context.Context, item *Item) error
}
