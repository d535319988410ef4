package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const itemColumns = `id, alias, name, price_cents, discount_pct, stock, created_at, updated_at`

func (r *Repo) ItemByAlias(ctx context.Context, alias string) (*Item, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE alias=$1`, alias)
	return scanItem(row)
}

func (r *Repo) ItemByID(ctx context.Context, id string) (*Item, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, id)
	return scanItem(row)
}

func (r *Repo) List(ctx context.Context) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY alias`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

// UpdateStock persists a stock level set outside the cart flow
// (restock, manual correction). Cart reservations go through the
// order store transaction instead.
func (r *Repo) UpdateStock(ctx context.Context, item *Item) error {
	ct, err := r.DB.Exec(ctx, `UPDATE items SET stock=$2, updated_at=now() WHERE id=$1`, item.ID, item.Stock)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row scannable) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Alias, &it.Name, &it.PriceCents, &it.DiscountPct, &it.Stock, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}
