package storefront

import (
	"context"
	"errors"
	"net/url"

	"github.com/ariefcatur/go-storefront-core/internal/events"
	"github.com/ariefcatur/go-storefront-core/internal/orders"
	"github.com/ariefcatur/go-storefront-core/internal/payment"
	"github.com/ariefcatur/go-storefront-core/internal/session"
)

const (
	NoticePaymentVerified = "Payment verified successfully!"
	NoticePaymentFailed   = "Could not verify payment. Please contact support."
)

// OrderPage is everything the order details page renders.
type OrderPage struct {
	Order      *orders.Snapshot `json:"order"`
	Timeline   []orders.Step    `json:"timeline"`
	Actions    orders.Actions   `json:"actions"`
	Totals     Totals           `json:"totals"`
	Verifying  bool             `json:"verifying"`
	Notice     string           `json:"notice,omitempty"`
	ReplaceURL string           `json:"replaceUrl,omitempty"`
}

// Totals are the snapshot's money fields formatted for display.
type Totals struct {
	Subtotal    string `json:"subtotal"`
	DeliveryFee string `json:"deliveryFee"`
	Discount    string `json:"discount"`
	Total       string `json:"total"`
}

// OrderPage loads orderNumber and derives its page. When u carries a
// successful payment callback, the payment is verified first (once per
// callback); on success the snapshot is refetched in full and ReplaceURL is
// set to u without the callback parameters. A callback whose tx_ref names
// another order is ignored.
func (s *Service) OrderPage(ctx context.Context, orderNumber string, u *url.URL) (*OrderPage, error) {
	cb, ok := payment.ParseCallback(u.Query())
	if ok && cb.TxRef != orderNumber {
		s.logger().WarnContext(ctx, "payment callback for another order ignored",
			"order_number", orderNumber, "tx_ref", cb.TxRef)
		ok = false
	}
	if !ok {
		snap, err := s.snapshot(ctx, orderNumber, false)
		if err != nil {
			return nil, err
		}
		return s.page(snap, s.Verifier.Verifying(orderNumber)), nil
	}

	err := s.Verifier.Verify(ctx, cb, func(ctx context.Context, cb payment.Callback) error {
		return s.Backend.VerifyPayment(ctx, cb.TxRef, cb.TransactionID)
	})
	switch {
	case err == nil:
		s.publish(ctx, events.TopicPaymentVerified, events.EventPaymentVerified, orderNumber, events.PaymentVerifiedPayload{
			OrderNumber: orderNumber, TxRef: cb.TxRef, TransactionID: cb.TransactionID,
		})
		snap, err := s.snapshot(ctx, orderNumber, true)
		if err != nil {
			return nil, err
		}
		p := s.page(snap, false)
		p.Notice = NoticePaymentVerified
		p.ReplaceURL = payment.StripCallback(u)
		return p, nil

	case errors.Is(err, payment.ErrInFlight):
		snap, err := s.snapshot(ctx, orderNumber, false)
		if err != nil {
			return nil, err
		}
		return s.page(snap, true), nil

	default:
		s.logger().WarnContext(ctx, "payment verification failed", "order_number", orderNumber, "tx_ref", cb.TxRef, "err", err)
		snap, err := s.snapshot(ctx, orderNumber, false)
		if err != nil {
			return nil, err
		}
		p := s.page(snap, s.Verifier.Verifying(orderNumber))
		p.Notice = NoticePaymentFailed
		return p, nil
	}
}

// CancelOrder cancels orderNumber if the latest snapshot allows it and
// returns the refreshed page.
func (s *Service) CancelOrder(ctx context.Context, orderNumber string) (*OrderPage, error) {
	snap, err := s.snapshot(ctx, orderNumber, true)
	if err != nil {
		return nil, err
	}
	if !orders.CanCancel(snap) {
		return nil, ErrActionNotPermitted
	}
	if err := s.Backend.CancelOrder(ctx, snap.ID); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicOrderCancelled, events.EventOrderCancelled, orderNumber, events.OrderCancelledPayload{
		OrderID: snap.ID, OrderNumber: orderNumber,
	})

	snap, err = s.snapshot(ctx, orderNumber, true)
	if err != nil {
		return nil, err
	}
	return s.page(snap, s.Verifier.Verifying(orderNumber)), nil
}

// InitiatePayment returns the gateway link for an unpaid order.
func (s *Service) InitiatePayment(ctx context.Context, orderNumber string) (string, error) {
	snap, err := s.snapshot(ctx, orderNumber, true)
	if err != nil {
		return "", err
	}
	if !orders.CanPay(snap) {
		return "", ErrActionNotPermitted
	}
	return s.Backend.InitiatePayment(ctx, orderNumber)
}

func (s *Service) page(snap *orders.Snapshot, verifying bool) *OrderPage {
	return &OrderPage{
		Order:     snap,
		Timeline:  orders.DeriveTimeline(snap, verifying),
		Actions:   orders.ActionsFor(snap),
		Verifying: verifying,
		Totals: Totals{
			Subtotal:    orders.FormatMoney(snap.Subtotal),
			DeliveryFee: orders.FormatMoney(snap.DeliveryFee),
			Discount:    orders.FormatMoney(snap.Discount),
			Total:       orders.FormatMoney(snap.Total),
		},
	}
}

// snapshot returns the order, from cache unless fresh is set. Cache entries
// and shared fetches are scoped to the calling shopper, and anonymous calls
// always go to the backend, which owns access to orders. A fresh read
// invalidates the order for every shopper first; a fetch that overlapped the
// invalidation is returned but not cached.
func (s *Service) snapshot(ctx context.Context, orderNumber string, fresh bool) (*orders.Snapshot, error) {
	scope, signedIn := session.Scope(ctx)
	cache := s.Cache
	if !signedIn {
		cache = nil
	}

	if cache != nil && !fresh {
		if snap, err := cache.Get(ctx, scope, orderNumber); err == nil {
			return snap, nil
		}
	}
	if fresh && s.Cache != nil {
		if err := s.Cache.Delete(ctx, orderNumber); err != nil {
			s.logger().WarnContext(ctx, "snapshot cache delete", "order_number", orderNumber, "err", err)
		}
	}

	key := scope + ":" + orderNumber
	if fresh {
		s.sfg.Forget(key)
		key = "fresh:" + key
	}
	v, err, _ := s.sfg.Do(key, func() (any, error) {
		var gen int64
		canStore := cache != nil
		if canStore {
			g, err := cache.Generation(ctx, orderNumber)
			if err != nil {
				s.logger().WarnContext(ctx, "snapshot cache generation", "order_number", orderNumber, "err", err)
				canStore = false
			}
			gen = g
		}
		snap, err := s.Backend.GetOrder(ctx, orderNumber)
		if err != nil {
			return nil, err
		}
		if snap.OrderNumber == "" {
			snap.OrderNumber = orderNumber
		}
		if canStore {
			if _, err := cache.Set(ctx, scope, gen, snap); err != nil {
				s.logger().WarnContext(ctx, "snapshot cache set", "order_number", orderNumber, "err", err)
			}
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*orders.Snapshot), nil
}
