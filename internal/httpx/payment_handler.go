package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/orders"
	"github.com/ariefcatur/go-storefront.git/internal/payment"
	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	Checkout *payment.Checkout
}

func (h *PaymentHandler) Register(r *chi.Mux) {
	r.Get("/payment/options", h.options)
	r.Post("/payment/customer", h.identifyBuyer)
	r.Post("/payment/terminal", h.payTerminal)
	r.Post("/payment/card", h.payCard)
	r.Get("/orders/{id}/receipt", h.receipt)
}

type identifyBuyerReq struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
}

func (h *PaymentHandler) identifyBuyer(w http.ResponseWriter, r *http.Request) {
	session := sessionID(r)
	if session == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing " + headerSession})
		return
	}

	var req identifyBuyerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name must not be blank"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Checkout.IdentifyBuyer(ctx, session, orders.Customer{ID: req.CustomerID, Name: req.Name})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(order))
}

type optionsResp struct {
	Order   *orderSummary    `json:"order"`
	Options []payment.Option `json:"options"`
}

type orderSummary struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id,omitempty"`
	Status     string `json:"status"`
	SumCents   int    `json:"sum_cents"`
}

func (h *PaymentHandler) options(w http.ResponseWriter, r *http.Request) {
	session := sessionID(r)
	if session == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing " + headerSession})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	order, opts, err := h.Checkout.PaymentOptionsWithOpenOrder(ctx, session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, optionsResp{
		Order:   summarize(order),
		Options: opts,
	})
}

func summarize(o *orders.Order) *orderSummary {
	return &orderSummary{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Status:     string(o.Status),
		SumCents:   o.TotalCents(),
	}
}

func (h *PaymentHandler) payTerminal(w http.ResponseWriter, r *http.Request) {
	session := sessionID(r)
	if session == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing " + headerSession})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 35*time.Second)
	defer cancel()

	res, err := h.Checkout.ProcessTerminalPayment(ctx, session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) payCard(w http.ResponseWriter, r *http.Request) {
	session := sessionID(r)
	if session == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing " + headerSession})
		return
	}

	var card payment.CardDetails
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := card.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 35*time.Second)
	defer cancel()

	res, err := h.Checkout.ProcessCardPayment(ctx, session, card)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) receipt(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	doc, err := h.Checkout.GetReceiptDocument(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
