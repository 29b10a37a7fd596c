package cart

import "github.com/shopspring/decimal"

// LineItem is one entry of the shopper's cart.
type LineItem struct {
	Key       Key             `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
}

// Identity derives the item's key from its product and variant axes.
func (it LineItem) Identity() Key {
	return DeriveIdentity(it.ProductID, it.Size, it.Color)
}

// LineTotal is price times quantity.
func (it LineItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// RemoteAdd is the body mirrored to the remote cart for an add.
type RemoteAdd struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}
