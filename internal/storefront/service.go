// Package storefront composes the cart and order engines into the operations
// the storefront pages need.
package storefront

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ariefcatur/go-storefront-core/internal/cart"
	"github.com/ariefcatur/go-storefront-core/internal/events"
	"github.com/ariefcatur/go-storefront-core/internal/orders"
	"github.com/ariefcatur/go-storefront-core/internal/payment"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ErrActionNotPermitted is returned when the latest snapshot does not allow
// the requested action.
var ErrActionNotPermitted = errors.New("action not permitted for this order")

// OrderBackend is the remote order service.
type OrderBackend interface {
	GetOrder(ctx context.Context, orderNumber string) (*orders.Snapshot, error)
	VerifyPayment(ctx context.Context, txRef, transactionID string) error
	CancelOrder(ctx context.Context, orderID string) error
	InitiatePayment(ctx context.Context, orderNumber string) (string, error)
	CreateOrder(ctx context.Context, req cart.CheckoutRequest) (string, error)
}

// SnapshotCache is an optional short-lived cache of order snapshots, keyed
// per shopper scope. Delete invalidates every scope and makes Set calls with
// an older generation no-ops.
type SnapshotCache interface {
	Get(ctx context.Context, scope, orderNumber string) (*orders.Snapshot, error)
	Generation(ctx context.Context, orderNumber string) (int64, error)
	Set(ctx context.Context, scope string, gen int64, s *orders.Snapshot) (bool, error)
	Delete(ctx context.Context, orderNumber string) error
}

// Publisher emits storefront events; implementations must not block.
type Publisher interface {
	PublishEnvelope(topic string, key []byte, env events.Envelope)
}

type Service struct {
	Backend     OrderBackend
	Carts       *cart.Registry
	Cache       SnapshotCache // optional
	Verifier    *payment.Verifier
	Events      Publisher // optional
	DeliveryFee decimal.Decimal
	ServiceName string
	Log         *slog.Logger

	sfg singleflight.Group
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *Service) publish(ctx context.Context, topic, eventType, key string, payload any) {
	if s.Events == nil {
		return
	}
	env, err := events.New(eventType, s.ServiceName, key, payload)
	if err != nil {
		s.logger().ErrorContext(ctx, "build event", "event_type", eventType, "err", err)
		return
	}
	s.Events.PublishEnvelope(topic, events.PartitionKey(key), env)
}
