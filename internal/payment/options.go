package payment

// Option describes a supported payment method. Pure configuration data
// for the storefront UI.
type Option struct {
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var options = []Option{
	{
		Title:       "Pay at terminal",
		Icon:        "icons/terminal.svg",
		Description: "Pay with cash or card at a partner payment terminal.",
	},
	{
		Title:       "Pay by card",
		Icon:        "icons/card.svg",
		Description: "Pay online with a debit or credit card.",
	},
}

func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}
