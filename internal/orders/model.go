package orders

import "time"

type Order struct {
	ID         string
	SessionID  string
	CustomerID string // empty until checkout identifies the buyer
	Status     Status
	CreatedAt  time.Time
	PaidAt     *time.Time
	UpdatedAt  time.Time
	Items      []LineItem
}

type LineItem struct {
	ID          string
	OrderID     string
	ItemID      string
	Qty         int
	PriceCents  int // unit price snapshot at time of adding
	DiscountPct int
}

type Customer struct {
	ID   string
	Name string
}

// TotalCents sums the discounted line totals.
func (o *Order) TotalCents() int {
	var sum int
	for _, li := range o.Items {
		sum += li.Qty * li.PriceCents * (100 - li.DiscountPct) / 100
	}
	return sum
}

func (o *Order) LineFor(itemID string) *LineItem {
	for i := range o.Items {
		if o.Items[i].ItemID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}
