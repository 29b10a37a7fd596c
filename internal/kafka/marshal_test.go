package kafka

import (
	"testing"

	"github.com/ariefcatur/go-storefront-core/internal/events"
	"github.com/ariefcatur/go-storefront-core/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopePayload(t *testing.T) {
	env, err := events.New(events.EventFulfillmentUpdated, "order-service", "ORD-1", events.FulfillmentUpdatedPayload{
		OrderNumber: "ORD-1", ItemID: "i-1", From: orders.StatusProcessing, To: orders.StatusShipped,
	})
	require.NoError(t, err)

	got, err := UnmarshalEnvelope(MustMarshal(env))
	require.NoError(t, err)
	assert.Equal(t, events.EventFulfillmentUpdated, got.EventType)
	assert.Equal(t, 1, got.EventVersion)
	assert.NotEmpty(t, got.EventID)

	p, err := UnwrapPayload[events.FulfillmentUpdatedPayload](got.Payload)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusShipped, p.To)
}

func TestUnmarshalEnvelope_Garbage(t *testing.T) {
	_, err := UnmarshalEnvelope([]byte("not json"))
	assert.Error(t, err)
}

func TestProducer_PublishAfterCloseIsDropped(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, 1, nil)
	p.Close()
	p.Close()

	assert.NotPanics(t, func() { p.Publish("t", nil, []byte("x")) })
}

func TestProducer_FullInboxDrops(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, 1, nil)

	p.Publish("t", nil, []byte("a"))
	assert.NotPanics(t, func() { p.Publish("t", nil, []byte("b")) })
	assert.Len(t, p.inbox, 1)
	p.Close()
}
