package storefront

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-storefront-core/internal/cart"
	"github.com/ariefcatur/go-storefront-core/internal/events"
	"github.com/ariefcatur/go-storefront-core/internal/orders"
	"github.com/shopspring/decimal"
)

// AddToCartRequest is a confirmed variant selection. Sizes and Colors are the
// options the product offers; an empty list means the axis does not apply.
type AddToCartRequest struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Sizes     []string        `json:"sizes"`
	Colors    []string        `json:"colors"`
}

type CartView struct {
	SessionID   string          `json:"sessionId"`
	Items       []cart.LineItem `json:"items"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
	Display     Totals          `json:"display"`
}

// Cart reads the session's cart. Reading never registers a cart in memory.
func (s *Service) Cart(ctx context.Context, sessionID string) (*CartView, error) {
	items, err := s.Carts.Items(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.cartView(sessionID, items), nil
}

// AddToCart validates the selection, then merges it into the session's cart.
func (s *Service) AddToCart(ctx context.Context, sessionID string, req AddToCartRequest) (*CartView, error) {
	opts := cart.ProductOptions{Sizes: req.Sizes, Colors: req.Colors}
	if err := cart.ValidateSelection(opts, req.Size, req.Color); err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	store, err := s.Carts.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	line, err := store.AddItem(ctx, cart.LineItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		Slug:      req.Slug,
		Price:     req.Price,
		Image:     req.Image,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicCartMutated, events.EventCartItemAdded, sessionID, events.CartMutatedPayload{
		SessionID: sessionID,
		Key:       string(line.Key),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	return s.cartView(sessionID, store.Items()), nil
}

// RemoveFromCart drops one line. Removing an absent key is not an error; the
// second return reports whether a line was removed.
func (s *Service) RemoveFromCart(ctx context.Context, sessionID string, key cart.Key) (*CartView, bool, error) {
	store, err := s.Carts.Open(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	removed := store.RemoveItem(ctx, key)
	if removed {
		s.publish(ctx, events.TopicCartMutated, events.EventCartItemRemoved, sessionID, events.CartMutatedPayload{
			SessionID: sessionID, Key: string(key),
		})
	}
	return s.cartView(sessionID, store.Items()), removed, nil
}

func (s *Service) ClearCart(ctx context.Context, sessionID string) (*CartView, error) {
	store, err := s.Carts.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	store.ClearCart(ctx)
	s.publish(ctx, events.TopicCartMutated, events.EventCartCleared, sessionID, events.CartMutatedPayload{SessionID: sessionID})
	return s.cartView(sessionID, store.Items()), nil
}

// Checkout submits the session's cart as an order and clears the cart once
// the backend has accepted it. A failed submission leaves the cart intact.
func (s *Service) Checkout(ctx context.Context, sessionID string, ship cart.ShippingDetails) (string, error) {
	store, err := s.Carts.Open(ctx, sessionID)
	if err != nil {
		return "", err
	}
	items := store.Items()
	req, err := cart.BuildCheckout(items, ship, s.DeliveryFee)
	if err != nil {
		return "", err
	}
	orderNumber, err := s.Backend.CreateOrder(ctx, req)
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	store.ClearCart(ctx)
	s.publish(ctx, events.TopicCheckoutSubmitted, events.EventCheckoutSubmitted, sessionID, events.CheckoutSubmittedPayload{
		SessionID:   sessionID,
		OrderNumber: orderNumber,
		ItemCount:   len(items),
		TotalAmount: req.TotalAmount,
	})
	return orderNumber, nil
}

func (s *Service) cartView(sessionID string, items []cart.LineItem) *CartView {
	subtotal := cart.Subtotal(items)
	fee := decimal.Zero
	if len(items) > 0 {
		fee = s.DeliveryFee
	}
	total := subtotal.Add(fee)
	qty := 0
	for _, it := range items {
		qty += it.Quantity
	}
	return &CartView{
		SessionID:   sessionID,
		Items:       items,
		Quantity:    qty,
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       total,
		Display: Totals{
			Subtotal:    orders.FormatMoney(subtotal),
			DeliveryFee: orders.FormatMoney(fee),
			Discount:    orders.FormatMoney(decimal.Zero),
			Total:       orders.FormatMoney(total),
		},
	}
}
