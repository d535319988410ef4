package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCard() CardDetails {
	return CardDetails{
		Holder:      "J DOE",
		CardNumber:  "4111111111111111",
		ExpiryMonth: 12,
		ExpiryYear:  2028,
		CVV:         123,
	}
}

func TestCardDetailsValidate(t *testing.T) {
	assert.NoError(t, validCard().Validate())

	cases := []struct {
		name   string
		mutate func(*CardDetails)
		want   error
	}{
		{"empty number", func(c *CardDetails) { c.CardNumber = "" }, ErrCardNumberRequired},
		{"month zero", func(c *CardDetails) { c.ExpiryMonth = 0 }, ErrBadExpiryMonth},
		{"month thirteen", func(c *CardDetails) { c.ExpiryMonth = 13 }, ErrBadExpiryMonth},
		{"year too old", func(c *CardDetails) { c.ExpiryYear = 1959 }, ErrBadExpiryYear},
		{"cvv zero", func(c *CardDetails) { c.CVV = 0 }, ErrBadCVV},
		{"cvv four digits", func(c *CardDetails) { c.CVV = 1000 }, ErrBadCVV},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			card := validCard()
			c.mutate(&card)
			assert.ErrorIs(t, card.Validate(), c.want)
		})
	}

	t.Run("boundary years and cvv", func(t *testing.T) {
		card := validCard()
		card.ExpiryYear = 1960
		card.CVV = 1
		assert.NoError(t, card.Validate())
		card.CVV = 999
		assert.NoError(t, card.Validate())
	})
}
