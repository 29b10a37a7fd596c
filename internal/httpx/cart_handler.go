package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-storefront-core/internal/cart"
	"github.com/ariefcatur/go-storefront-core/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HeaderCartSession names the anonymous cart session. A request without it
// gets a fresh session id, echoed back in the response.
const HeaderCartSession = "X-Cart-Session"

type CartHandler struct {
	Service *storefront.Service
}

type RemoveItemResp struct {
	Removed bool                 `json:"removed"`
	Cart    *storefront.CartView `json:"cart"`
}

type CheckoutResp struct {
	OrderNumber string `json:"orderNumber"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Delete("/cart/items/{key}", h.removeItem)
	r.Delete("/cart", h.clearCart)
	r.Post("/checkout", h.checkout)
}

func cartSession(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(HeaderCartSession)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(HeaderCartSession, id)
	return id
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	sid := cartSession(w, r)
	view, err := h.Service.Cart(r.Context(), sid)
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	sid := cartSession(w, r)
	var req storefront.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	view, err := h.Service.AddToCart(r.Context(), sid, req)
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	sid := cartSession(w, r)
	key, err := cartKeyParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed cart key")
		return
	}
	if _, _, _, err := cart.ParseKey(key); err != nil {
		writeError(w, http.StatusBadRequest, "malformed cart key")
		return
	}
	view, removed, err := h.Service.RemoveFromCart(r.Context(), sid, key)
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RemoveItemResp{Removed: removed, Cart: view})
}

// cartKeyParam returns the decoded {key} segment. chi matches on the raw path
// only when the request had one, so only then is the segment still escaped.
func cartKeyParam(r *http.Request) (cart.Key, error) {
	raw := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return cart.Key(raw), nil
	}
	s, err := url.PathUnescape(raw)
	return cart.Key(s), err
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	sid := cartSession(w, r)
	view, err := h.Service.ClearCart(r.Context(), sid)
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	sid := cartSession(w, r)
	var ship cart.ShippingDetails
	if err := json.NewDecoder(r.Body).Decode(&ship); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	orderNumber, err := h.Service.Checkout(r.Context(), sid, ship)
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CheckoutResp{OrderNumber: orderNumber})
}

func writeCartError(w http.ResponseWriter, err error) {
	var verr *cart.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error(), "field": "quantity"})
	case errors.Is(err, cart.ErrMissingProduct):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error(), "field": "productId"})
	case errors.Is(err, cart.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadGateway, "cart unavailable")
	}
}
