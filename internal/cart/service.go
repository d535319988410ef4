package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/orders"
	"go.uber.org/zap"
)

var ErrBlankAlias = errors.New("cart: item alias must not be blank")

// Receipt summarizes an add-to-cart mutation for the caller.
type Receipt struct {
	CustomerID  string     `json:"customer_id,omitempty"`
	OrderID     string     `json:"order_id"`
	ItemID      string     `json:"item_id"`
	ItemName    string     `json:"item_name"`
	Qty         int        `json:"qty"`
	SumCents    int        `json:"sum_cents"`
	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	PriceCents  int        `json:"price_cents"`
	DiscountPct int        `json:"discount_pct"`
}

type LineItemSummary struct {
	LineItemID string `json:"line_item_id"`
	ItemID     string `json:"item_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

// Service assembles the session's open order. The cache holds the open
// cart summary and the producer feeds the catalog mirror; both are
// optional and best effort.
type Service struct {
	Catalog  catalog.Source
	Store    orders.Store
	Cache    Cache
	Producer *kafkax.Producer
	Service  string
	Log      *zap.Logger
}

func (s *Service) AddItemToOrder(ctx context.Context, sessionID, alias string) (*Receipt, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil, ErrBlankAlias
	}

	item, err := s.Catalog.ItemByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}
	if item.Stock == 0 {
		return nil, catalog.ErrOutOfStock
	}

	mut, err := s.Store.AddItem(ctx, sessionID, item.ID)
	if err != nil {
		return nil, err
	}
	s.invalidateCart(ctx, sessionID)
	s.publishItemChanged(mut.Item)
	s.Log.Info("item added to cart",
		zap.String("session_id", sessionID),
		zap.String("order_id", mut.Order.ID),
		zap.String("item_id", item.ID),
		zap.Int("qty", mut.Line.Qty),
	)

	return &Receipt{
		CustomerID:  mut.Order.CustomerID,
		OrderID:     mut.Order.ID,
		ItemID:      mut.Item.ID,
		ItemName:    mut.Item.Name,
		Qty:         mut.Line.Qty,
		SumCents:    mut.Order.TotalCents(),
		CreatedAt:   mut.Order.CreatedAt,
		PaidAt:      mut.Order.PaidAt,
		PriceCents:  mut.Line.PriceCents,
		DiscountPct: mut.Line.DiscountPct,
	}, nil
}

func (s *Service) RemoveItemFromOrder(ctx context.Context, sessionID, alias string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return ErrBlankAlias
	}

	item, err := s.Catalog.ItemByAlias(ctx, alias)
	if err != nil {
		return err
	}

	mut, err := s.Store.RemoveItem(ctx, sessionID, item.ID)
	if err != nil {
		return err
	}
	s.invalidateCart(ctx, sessionID)
	s.publishItemChanged(mut.Item)
	s.Log.Info("item removed from cart",
		zap.String("session_id", sessionID),
		zap.String("order_id", mut.Order.ID),
		zap.String("item_id", item.ID),
		zap.Int("released_qty", mut.Line.Qty),
	)
	return nil
}

func (s *Service) GetCartDetails(ctx context.Context, orderID string) ([]LineItemSummary, error) {
	lines, err := s.Store.GetLineItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return summarize(lines), nil
}

// GetOpenCartDetails never fails on an absent cart: no open order means
// an empty summary.
func (s *Service) GetOpenCartDetails(ctx context.Context, sessionID string) ([]LineItemSummary, error) {
	if s.Cache != nil {
		if cached, ok := s.Cache.GetOpenCart(ctx, sessionID); ok {
			return cached, nil
		}
	}

	order, err := s.Store.GetOpenOrder(ctx, sessionID)
	if errors.Is(err, orders.ErrNoOpenOrder) {
		return []LineItemSummary{}, nil
	}
	if err != nil {
		return nil, err
	}
	lines, err := s.Store.GetLineItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	out := summarize(lines)
	if s.Cache != nil {
		s.Cache.SetOpenCart(ctx, sessionID, out)
	}
	return out, nil
}

func summarize(lines []orders.LineItem) []LineItemSummary {
	out := make([]LineItemSummary, 0, len(lines))
	for _, li := range lines {
		out = append(out, LineItemSummary{
			LineItemID: li.ID,
			ItemID:     li.ItemID,
			Qty:        li.Qty,
			PriceCents: li.PriceCents,
		})
	}
	return out
}

func (s *Service) invalidateCart(ctx context.Context, sessionID string) {
	if s.Cache == nil {
		return
	}
	s.Cache.InvalidateOpenCart(ctx, sessionID)
}

func (s *Service) publishItemChanged(it catalog.Item) {
	if s.Producer == nil {
		return
	}
	ev := kafkax.NewEnvelope(catalog.EventItemChanged, s.Service, it.ID, catalog.ItemSnapshot(it))
	s.Producer.PublishEnvelope(ev)
}
