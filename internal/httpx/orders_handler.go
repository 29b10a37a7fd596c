package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/go-storefront-core/internal/backend"
	"github.com/ariefcatur/go-storefront-core/internal/storefront"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	Service *storefront.Service
	Log     *slog.Logger
}

type PayResp struct {
	Link string `json:"link"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders/{orderNumber}", h.getOrder)
	r.Post("/orders/{orderNumber}/cancel", h.cancelOrder)
	r.Post("/orders/{orderNumber}/pay", h.payOrder)
}

// getOrder renders the order page. Payment callback parameters in the query
// are verified before the page is built; the response's replaceUrl tells the
// client where to navigate without adding a history entry.
func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	if orderNumber == "" {
		writeError(w, http.StatusBadRequest, "missing order number")
		return
	}
	page, err := h.Service.OrderPage(r.Context(), orderNumber, r.URL)
	if err != nil {
		h.writeOrderError(w, r, orderNumber, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	page, err := h.Service.CancelOrder(r.Context(), orderNumber)
	if err != nil {
		h.writeOrderError(w, r, orderNumber, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) payOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	link, err := h.Service.InitiatePayment(r.Context(), orderNumber)
	if err != nil {
		h.writeOrderError(w, r, orderNumber, err)
		return
	}
	writeJSON(w, http.StatusOK, PayResp{Link: link})
}

func (h *OrdersHandler) writeOrderError(w http.ResponseWriter, r *http.Request, orderNumber string, err error) {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, storefront.ErrActionNotPermitted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, backend.ErrPaymentLinkMissing):
		writeError(w, http.StatusBadGateway, "Payment link unavailable")
	default:
		h.log().ErrorContext(r.Context(), "order request failed", "order_number", orderNumber, "err", err)
		writeError(w, http.StatusBadGateway, "Failed to load order")
	}
}

func (h *OrdersHandler) log() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}
