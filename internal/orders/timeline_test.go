package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	created   = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	paid      = time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC)
	shipped   = time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	delivered = time.Date(2024, 1, 4, 15, 0, 0, 0, time.UTC)
	cancelled = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
)

func snapshot(status Status, itemStatuses ...Status) *Snapshot {
	s := &Snapshot{ID: "o-1", OrderNumber: "ORD-1", Status: status, CreatedAt: created}
	for i, st := range itemStatuses {
		s.Items = append(s.Items, LineItem{ID: string(rune('a' + i)), Status: st, Quantity: 1})
	}
	return s
}

func kinds(steps []Step) []StepKind {
	out := make([]StepKind, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Kind)
	}
	return out
}

func find(t *testing.T, steps []Step, k StepKind) Step {
	t.Helper()
	for _, s := range steps {
		if s.Kind == k {
			return s
		}
	}
	t.Fatalf("step %s not found in %v", k, kinds(steps))
	return Step{}
}

func TestDeriveTimeline_Unpaid(t *testing.T) {
	s := snapshot(StatusPending, StatusPending, StatusPending)

	steps := DeriveTimeline(s, false)

	assert.Equal(t, []StepKind{StepPlaced, StepPayment}, kinds(steps))
	assert.True(t, steps[0].Completed)
	require.NotNil(t, steps[0].Date)
	assert.Equal(t, created, *steps[0].Date)
	assert.False(t, steps[1].Completed)
	assert.Nil(t, steps[1].Date)
}

func TestDeriveTimeline_PaidShowsShippingAsNext(t *testing.T) {
	s := snapshot(StatusProcessing, StatusProcessing, StatusProcessing)
	s.PaidAt = &paid

	steps := DeriveTimeline(s, false)

	assert.Equal(t, []StepKind{StepPlaced, StepPayment, StepShipping}, kinds(steps))
	assert.True(t, steps[1].Completed)
	assert.Equal(t, paid, *steps[1].Date)
	assert.Equal(t, Step{Kind: StepShipping, Label: LabelShipped}, steps[2])
}

func TestDeriveTimeline_PartialShipping(t *testing.T) {
	s := snapshot(StatusProcessing, StatusShipped, StatusShipped, StatusProcessing)
	s.PaidAt = &paid

	steps := DeriveTimeline(s, false)

	ship := find(t, steps, StepShipping)
	assert.True(t, ship.Partial)
	assert.False(t, ship.Completed)
	assert.Contains(t, ship.Label, "2/3")
	assert.Nil(t, ship.Date)
	assert.NotContains(t, kinds(steps), StepDelivery)
}

func TestDeriveTimeline_FullyShipped(t *testing.T) {
	s := snapshot(StatusShipped, StatusShipped, StatusShipped, StatusShipped)
	s.PaidAt = &paid
	s.ShippedAt = &shipped

	steps := DeriveTimeline(s, false)

	assert.Equal(t, []StepKind{StepPlaced, StepPayment, StepShipping, StepDelivery}, kinds(steps))
	ship := steps[2]
	assert.True(t, ship.Completed)
	assert.False(t, ship.Partial)
	assert.Equal(t, LabelShipped, ship.Label)
	assert.Equal(t, shipped, *ship.Date)

	deliv := steps[3]
	assert.False(t, deliv.Completed)
	assert.Equal(t, LabelDelivered, deliv.Label)
}

func TestDeriveTimeline_DeliveryPlaceholderNeedsFullShipment(t *testing.T) {
	s := snapshot(StatusProcessing, StatusShipped, StatusProcessing)
	s.PaidAt = &paid

	assert.NotContains(t, kinds(DeriveTimeline(s, false)), StepDelivery)
}

func TestDeriveTimeline_PartialDelivery(t *testing.T) {
	s := snapshot(StatusShipped, StatusDelivered, StatusShipped)
	s.PaidAt = &paid
	s.ShippedAt = &shipped

	steps := DeriveTimeline(s, false)

	deliv := find(t, steps, StepDelivery)
	assert.True(t, deliv.Partial)
	assert.False(t, deliv.Completed)
	assert.Equal(t, "Delivered (1/2 items)", deliv.Label)
	assert.True(t, find(t, steps, StepShipping).Completed)
}

func TestDeriveTimeline_FullyDelivered(t *testing.T) {
	s := snapshot(StatusDelivered, StatusDelivered, StatusDelivered)
	s.PaidAt = &paid
	s.ShippedAt = &shipped
	s.DeliveredAt = &delivered

	steps := DeriveTimeline(s, false)

	require.Len(t, steps, 4)
	for _, st := range steps {
		assert.True(t, st.Completed, st.Kind)
	}
	assert.Equal(t, delivered, *steps[3].Date)
}

func TestDeriveTimeline_Verifying(t *testing.T) {
	s := snapshot(StatusPending, StatusPending)

	steps := DeriveTimeline(s, true)

	assert.Equal(t, []StepKind{StepPlaced, StepPaymentVerifying}, kinds(steps))
	assert.True(t, steps[1].Loading)
	assert.False(t, steps[1].Completed)
	assert.Nil(t, steps[1].Date)
	assert.Equal(t, LabelPaymentVerifying, steps[1].Label)
}

func TestDeriveTimeline_CancelledSuppressesShipping(t *testing.T) {
	s := snapshot(StatusCancelled, StatusShipped, StatusProcessing)
	s.PaidAt = &paid
	s.CancelledAt = &cancelled

	steps := DeriveTimeline(s, false)

	assert.Equal(t, []StepKind{StepPlaced, StepPayment, StepCancelled}, kinds(steps))
	last := steps[len(steps)-1]
	assert.True(t, last.Completed)
	assert.True(t, last.Cancelled)
	assert.Equal(t, cancelled, *last.Date)
}

func TestDeriveTimeline_CancelledUnpaidKeepsPaymentAsIs(t *testing.T) {
	s := snapshot(StatusCancelled, StatusPending)
	s.CancelledAt = &cancelled

	steps := DeriveTimeline(s, false)

	assert.Equal(t, []StepKind{StepPlaced, StepPayment, StepCancelled}, kinds(steps))
	assert.False(t, steps[1].Completed)
}

func TestDeriveTimeline_EmptyOrder(t *testing.T) {
	s := snapshot(StatusProcessing)
	s.PaidAt = &paid

	steps := DeriveTimeline(s, false)

	ship := find(t, steps, StepShipping)
	assert.False(t, ship.Completed)
	assert.NotContains(t, kinds(steps), StepDelivery)
}

// Completed steps must survive every later item transition.
func TestDeriveTimeline_Monotonic(t *testing.T) {
	progression := [][]Status{
		{StatusProcessing, StatusProcessing, StatusProcessing},
		{StatusShipped, StatusProcessing, StatusProcessing},
		{StatusShipped, StatusShipped, StatusProcessing},
		{StatusShipped, StatusShipped, StatusShipped},
		{StatusDelivered, StatusShipped, StatusShipped},
		{StatusDelivered, StatusDelivered, StatusShipped},
		{StatusDelivered, StatusDelivered, StatusDelivered},
	}

	completed := map[StepKind]bool{}
	for i, items := range progression {
		s := snapshot(StatusProcessing, items...)
		s.PaidAt = &paid
		if i >= 3 {
			s.ShippedAt = &shipped
		}
		steps := DeriveTimeline(s, false)

		now := map[StepKind]bool{}
		for _, st := range steps {
			if st.Completed {
				now[st.Kind] = true
			}
		}
		for k := range completed {
			assert.True(t, now[k], "stage %d: %s regressed", i, k)
		}
		completed = now

		// fixed order
		order := map[StepKind]int{StepPlaced: 0, StepPayment: 1, StepShipping: 2, StepDelivery: 3, StepCancelled: 4}
		for j := 1; j < len(steps); j++ {
			assert.Less(t, order[steps[j-1].Kind], order[steps[j].Kind])
		}
	}
	assert.Len(t, completed, 4)
}
