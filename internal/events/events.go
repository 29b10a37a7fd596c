package events

import (
	"encoding/json"
	"time"

	"github.com/ariefcatur/go-storefront-core/internal/orders"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventCartItemAdded      = "CartItemAdded"
	EventCartItemRemoved    = "CartItemRemoved"
	EventCartCleared        = "CartCleared"
	EventCheckoutSubmitted  = "CheckoutSubmitted"
	EventPaymentVerified    = "PaymentVerified"
	EventOrderCancelled     = "OrderCancelled"
	EventFulfillmentUpdated = "ItemFulfillmentUpdated"
)

const envelopeVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // cart session or order number
	Payload       json.RawMessage `json:"payload"`
}

// New wraps payload in a v1 envelope.
func New(eventType, producer, correlationID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

// ---- payloads ----

type CartMutatedPayload struct {
	SessionID string `json:"session_id"`
	Key       string `json:"key,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

type CheckoutSubmittedPayload struct {
	SessionID   string          `json:"session_id"`
	OrderNumber string          `json:"order_number"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type PaymentVerifiedPayload struct {
	OrderNumber   string `json:"order_number"`
	TxRef         string `json:"tx_ref"`
	TransactionID string `json:"transaction_id"`
}

type OrderCancelledPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

// FulfillmentUpdatedPayload is published by the order service when one line
// item changes fulfillment status.
type FulfillmentUpdatedPayload struct {
	OrderNumber string        `json:"order_number"`
	ItemID      string        `json:"item_id"`
	From        orders.Status `json:"from"`
	To          orders.Status `json:"to"`
}
