// Package fulfillment consumes per-item fulfillment updates from the order
// service and drops the cached snapshot of the affected order.
package fulfillment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ariefcatur/go-storefront-core/internal/events"
	kafkax "github.com/ariefcatur/go-storefront-core/internal/kafka"
	"github.com/ariefcatur/go-storefront-core/internal/orders"
	"github.com/ariefcatur/go-storefront-core/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Invalidator drops cached order snapshots.
type Invalidator interface {
	Delete(ctx context.Context, orderNumber string) error
}

type Service struct {
	Redis       redis.Cmdable
	Cache       Invalidator
	ServiceName string
	Log         *slog.Logger
}

// HandleFulfillmentUpdated is the consumer handler for the fulfillment topic.
// Redelivered events are skipped by event id once handled. A failing event is
// left unmarked so its redelivery is processed. A transition the status table
// does not allow is logged and still applied; the order service owns status.
func (s *Service) HandleFulfillmentUpdated(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		return err
	}
	if env.EventType != events.EventFulfillmentUpdated {
		return nil
	}

	p, err := kafkax.UnwrapPayload[events.FulfillmentUpdatedPayload](env.Payload)
	if err != nil {
		return err
	}
	if p.OrderNumber == "" {
		return fmt.Errorf("fulfillment event %s: missing order number", env.EventID)
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	first, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		s.log().WarnContext(ctx, "dedup check failed", "event_id", env.EventID, "err", err)
	} else if !first {
		return nil
	}

	if !orders.CanTransition(p.From, p.To) {
		s.log().WarnContext(ctx, "unexpected item transition",
			"order_number", p.OrderNumber, "item_id", p.ItemID, "from", p.From, "to", p.To)
	}

	if err := s.Cache.Delete(ctx, p.OrderNumber); err != nil {
		// let the event be retried; the dedup mark must not block it
		_ = s.Redis.Del(ctx, dkey).Err()
		return fmt.Errorf("invalidate snapshot %s: %w", p.OrderNumber, err)
	}
	s.log().InfoContext(ctx, "snapshot invalidated",
		"order_number", p.OrderNumber, "item_id", p.ItemID, "to", p.To)
	return nil
}

func (s *Service) log() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
