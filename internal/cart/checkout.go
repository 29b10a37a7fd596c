package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrEmptyCart = errors.New("cart is empty")

type ShippingDetails struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	CustomerNote string `json:"customerNote,omitempty"`
}

type CheckoutItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
}

// CheckoutRequest is the order submission body sent to the backend.
type CheckoutRequest struct {
	ShippingDetails
	Items       []CheckoutItem  `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// BuildCheckout turns cart lines into an order submission. The total is the
// cart subtotal plus the delivery fee.
func BuildCheckout(items []LineItem, ship ShippingDetails, deliveryFee decimal.Decimal) (CheckoutRequest, error) {
	if len(items) == 0 {
		return CheckoutRequest{}, ErrEmptyCart
	}
	out := CheckoutRequest{
		ShippingDetails: ship,
		Items:           make([]CheckoutItem, 0, len(items)),
		TotalAmount:     Subtotal(items).Add(deliveryFee),
	}
	for _, it := range items {
		out.Items = append(out.Items, CheckoutItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	return out, nil
}
