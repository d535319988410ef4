package orders

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/audit"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the relational Store variant. A partial unique index on
// (session_id) WHERE status='OPEN' guarantees at most one open order
// per session; AddItem retries once when two first-adds race on it.
type PGStore struct {
	DB    *pgxpool.Pool
	Audit audit.Recorder
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const orderColumns = `id, session_id, COALESCE(customer_id, ''), status, created_at, paid_at, updated_at`

func (s *PGStore) GetOpenOrder(ctx context.Context, sessionID string) (*Order, error) {
	return openOrderTx(ctx, s.DB, sessionID, false)
}

func (s *PGStore) GetByID(ctx context.Context, id string) (*Order, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (s *PGStore) GetByIDWithLineItems(ctx context.Context, id string) (*Order, error) {
	o, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items, err = lineItemsTx(ctx, s.DB, o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PGStore) GetAll(ctx context.Context) ([]Order, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (s *PGStore) GetLineItems(ctx context.Context, orderID string) ([]LineItem, error) {
	return lineItemsTx(ctx, s.DB, orderID)
}

func (s *PGStore) Add(ctx context.Context, o *Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusOpen
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, session_id, customer_id, status, paid_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING created_at, updated_at`,
		o.ID, o.SessionID, o.CustomerID, o.Status, o.PaidAt,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}
	if err := insertLines(ctx, tx, o); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.record(ctx, o.ID, "create", nil, snapshot(o))
	return nil
}

func (s *PGStore) Update(ctx context.Context, o *Order) error {
	before, _ := s.GetByIDWithLineItems(ctx, o.ID)

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	ct, err := tx.Exec(ctx, `
		UPDATE orders
		SET session_id=$2, customer_id=NULLIF($3, ''), status=$4, paid_at=$5, updated_at=$6
		WHERE id=$1`,
		o.ID, o.SessionID, o.CustomerID, o.Status, o.PaidAt, now)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNoRowsAffected
	}
	if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE order_id=$1`, o.ID); err != nil {
		return err
	}
	if err := insertLines(ctx, tx, o); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	o.UpdatedAt = now
	s.record(ctx, o.ID, "update", before, snapshot(o))
	return nil
}

func (s *PGStore) Remove(ctx context.Context, id string) error {
	before, _ := s.GetByIDWithLineItems(ctx, id)

	ct, err := s.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNoRowsAffected
	}
	s.record(ctx, id, "delete", before, nil)
	return nil
}

func (s *PGStore) MarkCheckout(ctx context.Context, o *Order) error {
	if !CanTransition(o.Status, StatusCheckout) {
		return ErrBadTransition
	}
	before := snapshot(o)
	now := time.Now().UTC()
	ct, err := s.DB.Exec(ctx,
		`UPDATE orders SET status='CHECKOUT', updated_at=$2 WHERE id=$1 AND status='OPEN'`, o.ID, now)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNoRowsAffected
	}
	o.Status = StatusCheckout
	o.UpdatedAt = now
	s.record(ctx, o.ID, "mark_checkout", before, snapshot(o))
	return nil
}

func (s *PGStore) MarkPaid(ctx context.Context, o *Order) error {
	if !CanTransition(o.Status, StatusPaid) {
		return ErrBadTransition
	}
	before := snapshot(o)
	now := time.Now().UTC()
	ct, err := s.DB.Exec(ctx, `
		UPDATE orders SET status='PAID', paid_at=$2, updated_at=$2
		WHERE id=$1 AND status IN ('OPEN','CHECKOUT')`, o.ID, now)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNoRowsAffected
	}
	o.Status = StatusPaid
	o.PaidAt = &now
	o.UpdatedAt = now
	s.record(ctx, o.ID, "mark_paid", before, snapshot(o))
	return nil
}

func (s *PGStore) MarkCancelled(ctx context.Context, o *Order) error {
	if !CanTransition(o.Status, StatusCancelled) {
		return ErrBadTransition
	}
	before := snapshot(o)

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status='CANCELLED', updated_at=$2
		WHERE id=$1 AND status IN ('OPEN','CHECKOUT')`, o.ID, now)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNoRowsAffected
	}

	// return the order's reserved units to stock
	if _, err := tx.Exec(ctx, `
		UPDATE items i SET stock = i.stock + li.qty, updated_at = $2
		FROM line_items li
		WHERE li.order_id = $1 AND li.item_id = i.id`, o.ID, now); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	o.Status = StatusCancelled
	o.UpdatedAt = now
	s.record(ctx, o.ID, "mark_cancelled", before, snapshot(o))
	return nil
}

func (s *PGStore) AddItem(ctx context.Context, sessionID, itemID string) (*CartMutation, error) {
	mut, err := s.addItemTx(ctx, sessionID, itemID)
	if isUniqueViolation(err) {
		// lost the race to create the open order; the winner's row is
		// committed now, so a second pass accumulates onto it
		mut, err = s.addItemTx(ctx, sessionID, itemID)
	}
	return mut, err
}

func (s *PGStore) addItemTx(ctx context.Context, sessionID, itemID string) (*CartMutation, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock order rows before item rows, same as RemoveItem and
	// MarkCancelled, so concurrent cart mutations cannot deadlock.
	// A failure past this point rolls back any order created here.
	order, err := openOrderTx(ctx, tx, sessionID, true)
	var before *Order
	if errors.Is(err, ErrNoOpenOrder) {
		order = &Order{ID: uuid.NewString(), SessionID: sessionID, Status: StatusOpen}
		err = tx.QueryRow(ctx,
			`INSERT INTO orders(id, session_id, status) VALUES ($1, $2, 'OPEN') RETURNING created_at, updated_at`,
			order.ID, sessionID,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		before = snapshot(order)
	}

	it, err := lockItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if it.Stock < 1 {
		return nil, catalog.ErrOutOfStock
	}

	var line LineItem
	err = tx.QueryRow(ctx, `
		INSERT INTO line_items(id, order_id, item_id, qty, price_cents, discount_pct)
		VALUES ($1, $2, $3, 1, $4, $5)
		ON CONFLICT (order_id, item_id) DO UPDATE SET qty = line_items.qty + 1
		RETURNING id, order_id, item_id, qty, price_cents, discount_pct`,
		uuid.NewString(), order.ID, itemID, it.PriceCents, it.DiscountPct,
	).Scan(&line.ID, &line.OrderID, &line.ItemID, &line.Qty, &line.PriceCents, &line.DiscountPct)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`UPDATE items SET stock = stock - 1, updated_at=$2 WHERE id=$1`, itemID, now); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE orders SET updated_at=$2 WHERE id=$1`, order.ID, now); err != nil {
		return nil, err
	}

	order.Items, err = lineItemsTx(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	order.UpdatedAt = now
	it.Stock--
	it.UpdatedAt = now
	s.record(ctx, order.ID, "add_item", before, snapshot(order))
	return &CartMutation{Order: order, Line: line, Item: *it}, nil
}

func (s *PGStore) RemoveItem(ctx context.Context, sessionID, itemID string) (*CartMutation, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order, err := openOrderTx(ctx, tx, sessionID, true)
	if err != nil {
		return nil, err
	}
	order.Items, err = lineItemsTx(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}
	before := snapshot(order)

	var line LineItem
	err = tx.QueryRow(ctx, `
		SELECT id, order_id, item_id, qty, price_cents, discount_pct
		FROM line_items WHERE order_id=$1 AND item_id=$2`, order.ID, itemID,
	).Scan(&line.ID, &line.OrderID, &line.ItemID, &line.Qty, &line.PriceCents, &line.DiscountPct)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLineItemNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE id=$1`, line.ID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var it catalog.Item
	err = tx.QueryRow(ctx, `
		UPDATE items SET stock = stock + $2, updated_at = $3
		WHERE id=$1
		RETURNING id, alias, name, price_cents, discount_pct, stock, created_at, updated_at`,
		itemID, line.Qty, now,
	).Scan(&it.ID, &it.Alias, &it.Name, &it.PriceCents, &it.DiscountPct, &it.Stock, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE orders SET updated_at=$2 WHERE id=$1`, order.ID, now); err != nil {
		return nil, err
	}

	order.Items, err = lineItemsTx(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	order.UpdatedAt = now
	s.record(ctx, order.ID, "remove_item", before, snapshot(order))
	return &CartMutation{Order: order, Line: line, Item: it}, nil
}

func (s *PGStore) AttachCustomer(ctx context.Context, sessionID string, c Customer) (*Order, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order, err := openOrderTx(ctx, tx, sessionID, true)
	if err != nil {
		return nil, err
	}
	before := snapshot(order)

	if _, err := tx.Exec(ctx, `
		INSERT INTO customers(id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, c.ID, c.Name); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`UPDATE orders SET customer_id=$2, updated_at=$3 WHERE id=$1`, order.ID, c.ID, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	order.CustomerID = c.ID
	order.UpdatedAt = now
	s.record(ctx, order.ID, "attach_customer", before, snapshot(order))
	return order, nil
}

func (s *PGStore) record(ctx context.Context, id, op string, before, after any) {
	if s.Audit == nil {
		return
	}
	s.Audit.Record(ctx, audit.Entry{
		Entity:   "order",
		EntityID: id,
		Op:       op,
		Before:   before,
		After:    after,
		At:       time.Now().UTC(),
	})
}

// snapshot takes a value copy for audit entries so later mutation of
// the order does not alias the recorded state.
func snapshot(o *Order) *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]LineItem(nil), o.Items...)
	return &c
}

func insertLines(ctx context.Context, q querier, o *Order) error {
	for i := range o.Items {
		li := &o.Items[i]
		if li.ID == "" {
			li.ID = uuid.NewString()
		}
		li.OrderID = o.ID
		if _, err := q.Exec(ctx, `
			INSERT INTO line_items(id, order_id, item_id, qty, price_cents, discount_pct)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			li.ID, li.OrderID, li.ItemID, li.Qty, li.PriceCents, li.DiscountPct); err != nil {
			return err
		}
	}
	return nil
}

func openOrderTx(ctx context.Context, q querier, sessionID string, forUpdate bool) (*Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE session_id=$1 AND status='OPEN' LIMIT 1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	o, err := scanOrder(q.QueryRow(ctx, sql, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoOpenOrder
	}
	return o, err
}

func lockItem(ctx context.Context, q querier, itemID string) (*catalog.Item, error) {
	var it catalog.Item
	err := q.QueryRow(ctx, `
		SELECT id, alias, name, price_cents, discount_pct, stock, created_at, updated_at
		FROM items WHERE id=$1 FOR UPDATE`, itemID,
	).Scan(&it.ID, &it.Alias, &it.Name, &it.PriceCents, &it.DiscountPct, &it.Stock, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func lineItemsTx(ctx context.Context, q querier, orderID string) ([]LineItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, item_id, qty, price_cents, discount_pct
		FROM line_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LineItem
	for rows.Next() {
		var li LineItem
		if err := rows.Scan(&li.ID, &li.OrderID, &li.ItemID, &li.Qty, &li.PriceCents, &li.DiscountPct); err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.SessionID, &o.CustomerID, &o.Status, &o.CreatedAt, &o.PaidAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
