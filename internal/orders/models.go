package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is a read of an order as returned by the order service. It is
// never patched locally; a newer state always means a new snapshot.
type Snapshot struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	Status          Status          `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"createdAt"`
	PaidAt          *time.Time      `json:"paidAt"`
	ShippedAt       *time.Time      `json:"shippedAt"`
	DeliveredAt     *time.Time      `json:"deliveredAt"`
	CancelledAt     *time.Time      `json:"cancelledAt"`
	Items           []LineItem      `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
}

type LineItem struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductImage string          `json:"productImage"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Size         string          `json:"size"`
	Color        string          `json:"color"`
	Status       Status          `json:"status"`
}

type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
}

func (s *Snapshot) Cancelled() bool { return s.Status == StatusCancelled }

// Validate rejects statuses outside the vocabulary, including CANCELLED on
// a line item.
func (s *Snapshot) Validate() error {
	if !s.Status.Valid() {
		return fmt.Errorf("order %s: unknown status %q", s.OrderNumber, s.Status)
	}
	for _, it := range s.Items {
		if !it.Status.ValidForItem() {
			return fmt.Errorf("order %s item %s: invalid item status %q", s.OrderNumber, it.ID, it.Status)
		}
	}
	return nil
}
