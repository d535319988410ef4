package payment

import "errors"

var (
	ErrCardNumberRequired = errors.New("payment: card number is required")
	ErrBadExpiryMonth     = errors.New("payment: expiry month must be 1-12")
	ErrBadExpiryYear      = errors.New("payment: expiry year must be 1960 or later")
	ErrBadCVV             = errors.New("payment: cvv must be 1-999")
)

type CardDetails struct {
	Holder      string `json:"holder"`
	CardNumber  string `json:"card_number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         int    `json:"cvv"`
}

// Validate enforces the boundary rules before any gateway call is made.
func (c CardDetails) Validate() error {
	if c.CardNumber == "" {
		return ErrCardNumberRequired
	}
	if c.ExpiryMonth < 1 || c.ExpiryMonth > 12 {
		return ErrBadExpiryMonth
	}
	if c.ExpiryYear < 1960 {
		return ErrBadExpiryYear
	}
	if c.CVV < 1 || c.CVV > 999 {
		return ErrBadCVV
	}
	return nil
}
