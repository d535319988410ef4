package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/go-chi/chi/v5"
)

// CatalogHandler exposes the item list and the restock operation.
// Restocks bypass the cart flow and set the stock level directly.
type CatalogHandler struct {
	Catalog  catalog.Source
	Stock    catalog.StockWriter
	Producer *kafkax.Producer
	Service  string
}

type restockReq struct {
	Stock int `json:"stock"`
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/items", h.list)
	r.Put("/items/{alias}/stock", h.restock)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.Catalog.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]catalog.ItemChangedPayload, 0, len(items))
	for _, it := range items {
		out = append(out, catalog.ItemSnapshot(it))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) restock(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")

	var req restockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock must not be negative"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.Catalog.ItemByAlias(ctx, alias)
	if err != nil {
		writeError(w, err)
		return
	}
	item.Stock = req.Stock
	if err := h.Stock.UpdateStock(ctx, item); err != nil {
		writeError(w, err)
		return
	}
	if h.Producer != nil {
		ev := kafkax.NewEnvelope(catalog.EventItemChanged, h.Service, item.ID, catalog.ItemSnapshot(*item))
		h.Producer.PublishEnvelope(ev)
	}
	writeJSON(w, http.StatusOK, catalog.ItemSnapshot(*item))
}
