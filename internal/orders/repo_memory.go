package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/audit"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/google/uuid"
)

// MemStore is the in-process Store variant, selected with
// STORE_BACKEND=memory. It doubles as the catalog source, holding the
// item stocks it reserves against. All methods hand out value copies.
type MemStore struct {
	mu     sync.Mutex
	orders map[string]*Order
	items  map[string]*catalog.Item
	audit  audit.Recorder
}

var _ Store = (*MemStore)(nil)
var _ catalog.Source = (*MemStore)(nil)

func NewMemStore(rec audit.Recorder, items ...catalog.Item) *MemStore {
	if rec == nil {
		rec = audit.Nop{}
	}
	m := &MemStore{
		orders: make(map[string]*Order),
		items:  make(map[string]*catalog.Item),
		audit:  rec,
	}
	now := time.Now().UTC()
	for _, it := range items {
		c := it
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
			c.UpdatedAt = now
		}
		m.items[c.ID] = &c
	}
	return m
}

func (m *MemStore) ItemByAlias(_ context.Context, alias string) (*catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.Alias == alias {
			c := *it
			return &c, nil
		}
	}
	return nil, catalog.ErrItemNotFound
}

func (m *MemStore) ItemByID(_ context.Context, id string) (*catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, catalog.ErrItemNotFound
	}
	c := *it
	return &c, nil
}

func (m *MemStore) List(_ context.Context) ([]catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]catalog.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, *it)
	}
	return out, nil
}

func (m *MemStore) GetOpenOrder(_ context.Context, sessionID string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.openOrderLocked(sessionID)
	if o == nil {
		return nil, ErrNoOpenOrder
	}
	return snapshot(o), nil
}

func (m *MemStore) GetByID(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return snapshot(o), nil
}

func (m *MemStore) GetByIDWithLineItems(ctx context.Context, id string) (*Order, error) {
	return m.GetByID(ctx, id)
}

func (m *MemStore) GetAll(_ context.Context) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *snapshot(o))
	}
	return out, nil
}

func (m *MemStore) GetLineItems(_ context.Context, orderID string) ([]LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	return append([]LineItem(nil), o.Items...), nil
}

func (m *MemStore) Add(ctx context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if _, exists := m.orders[o.ID]; exists {
		return fmt.Errorf("orders: duplicate id %s", o.ID)
	}
	if o.Status == "" {
		o.Status = StatusOpen
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	m.orders[o.ID] = snapshot(o)
	m.record(ctx, o.ID, "create", nil, snapshot(o))
	return nil
}

func (m *MemStore) Update(ctx context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.orders[o.ID]
	if !ok {
		return ErrNoRowsAffected
	}
	before := snapshot(existing)
	o.UpdatedAt = time.Now().UTC()
	m.orders[o.ID] = snapshot(o)
	m.record(ctx, o.ID, "update", before, snapshot(o))
	return nil
}

func (m *MemStore) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrNoRowsAffected
	}
	before := snapshot(o)
	delete(m.orders, id)
	m.record(ctx, id, "delete", before, nil)
	return nil
}

func (m *MemStore) MarkCheckout(ctx context.Context, o *Order) error {
	return m.transition(ctx, o, StatusCheckout, "mark_checkout")
}

func (m *MemStore) MarkPaid(ctx context.Context, o *Order) error {
	return m.transition(ctx, o, StatusPaid, "mark_paid")
}

func (m *MemStore) MarkCancelled(ctx context.Context, o *Order) error {
	return m.transition(ctx, o, StatusCancelled, "mark_cancelled")
}

func (m *MemStore) transition(ctx context.Context, o *Order, to Status, op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok {
		return ErrNoRowsAffected
	}
	if !CanTransition(stored.Status, to) {
		return ErrBadTransition
	}
	before := snapshot(stored)
	now := time.Now().UTC()
	stored.Status = to
	stored.UpdatedAt = now
	if to == StatusPaid {
		stored.PaidAt = &now
	}
	if to == StatusCancelled {
		for _, li := range stored.Items {
			if it, ok := m.items[li.ItemID]; ok {
				it.Stock += li.Qty
				it.UpdatedAt = now
			}
		}
	}
	o.Status = stored.Status
	o.PaidAt = stored.PaidAt
	o.UpdatedAt = stored.UpdatedAt
	m.record(ctx, o.ID, op, before, snapshot(stored))
	return nil
}

func (m *MemStore) AddItem(ctx context.Context, sessionID, itemID string) (*CartMutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[itemID]
	if !ok {
		return nil, catalog.ErrItemNotFound
	}
	if it.Stock < 1 {
		return nil, catalog.ErrOutOfStock
	}

	now := time.Now().UTC()
	order := m.openOrderLocked(sessionID)
	var before *Order
	if order == nil {
		order = &Order{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Status:    StatusOpen,
			CreatedAt: now,
			UpdatedAt: now,
		}
		m.orders[order.ID] = order
	} else {
		before = snapshot(order)
	}

	line := order.LineFor(itemID)
	if line == nil {
		order.Items = append(order.Items, LineItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ItemID:      itemID,
			Qty:         1,
			PriceCents:  it.PriceCents,
			DiscountPct: it.DiscountPct,
		})
		line = &order.Items[len(order.Items)-1]
	} else {
		line.Qty++
	}
	it.Stock--
	it.UpdatedAt = now
	order.UpdatedAt = now

	m.record(ctx, order.ID, "add_item", before, snapshot(order))
	return &CartMutation{Order: snapshot(order), Line: *line, Item: *it}, nil
}

func (m *MemStore) RemoveItem(ctx context.Context, sessionID, itemID string) (*CartMutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order := m.openOrderLocked(sessionID)
	if order == nil {
		return nil, ErrNoOpenOrder
	}
	before := snapshot(order)

	idx := -1
	for i := range order.Items {
		if order.Items[i].ItemID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrLineItemNotFound
	}
	line := order.Items[idx]
	order.Items = append(order.Items[:idx], order.Items[idx+1:]...)

	it, ok := m.items[itemID]
	if !ok {
		return nil, catalog.ErrItemNotFound
	}
	now := time.Now().UTC()
	it.Stock += line.Qty
	it.UpdatedAt = now
	order.UpdatedAt = now

	m.record(ctx, order.ID, "remove_item", before, snapshot(order))
	return &CartMutation{Order: snapshot(order), Line: line, Item: *it}, nil
}

func (m *MemStore) AttachCustomer(ctx context.Context, sessionID string, c Customer) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order := m.openOrderLocked(sessionID)
	if order == nil {
		return nil, ErrNoOpenOrder
	}
	before := snapshot(order)
	order.CustomerID = c.ID
	order.UpdatedAt = time.Now().UTC()
	m.record(ctx, order.ID, "attach_customer", before, snapshot(order))
	return snapshot(order), nil
}

// UpdateStock replaces an item's stock level, mirroring the relational
// catalog repo for the in-process backend.
func (m *MemStore) UpdateStock(_ context.Context, it *catalog.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.items[it.ID]
	if !ok {
		return catalog.ErrItemNotFound
	}
	stored.Stock = it.Stock
	stored.UpdatedAt = time.Now().UTC()
	*it = *stored
	return nil
}

func (m *MemStore) openOrderLocked(sessionID string) *Order {
	for _, o := range m.orders {
		if o.SessionID == sessionID && o.Status == StatusOpen {
			return o
		}
	}
	return nil
}

func (m *MemStore) record(ctx context.Context, id, op string, before, after any) {
	m.audit.Record(ctx, audit.Entry{
		Entity:   "order",
		EntityID: id,
		Op:       op,
		Before:   before,
		After:    after,
		At:       time.Now().UTC(),
	})
}
