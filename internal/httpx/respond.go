package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/orders"
)

const headerSession = "X-Session-Id"

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cart.ErrBlankAlias):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrLineItemNotFound),
		errors.Is(err, orders.ErrNoOpenOrder):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrOutOfStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// sessionID extracts the shopper session; carts may be anonymous but
// never session-less.
func sessionID(r *http.Request) string {
	return r.Header.Get(headerSession)
}
