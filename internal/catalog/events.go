package catalog

import "time"

const (
	EventItemChanged = "CatalogItemChanged"

	TopicItemChanged = "storefront.catalog.item.changed"
)

// ItemChangedPayload is the full item snapshot published after every
// stock mutation; the mirror worker upserts it as-is.
type ItemChangedPayload struct {
	ItemID      string    `json:"item_id"`
	Alias       string    `json:"alias"`
	Name        string    `json:"name"`
	PriceCents  int       `json:"price_cents"`
	DiscountPct int       `json:"discount_pct"`
	Stock       int       `json:"stock"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ItemSnapshot(it Item) ItemChangedPayload {
	return ItemChangedPayload{
		ItemID:      it.ID,
		Alias:       it.Alias,
		Name:        it.Name,
		PriceCents:  it.PriceCents,
		DiscountPct: it.DiscountPct,
		Stock:       it.Stock,
		UpdatedAt:   it.UpdatedAt,
	}
}
