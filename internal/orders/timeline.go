package orders

import "time"

type StepKind string

const (
	StepPlaced           StepKind = "placed"
	StepPaymentVerifying StepKind = "payment_verifying"
	StepPayment          StepKind = "payment"
	StepShipping         StepKind = "shipping"
	StepDelivery         StepKind = "delivery"
	StepCancelled        StepKind = "cancelled"
)

const (
	LabelPlaced           = "Order Placed"
	LabelPaymentVerifying = "Verifying Payment..."
	LabelPaymentConfirmed = "Payment Confirmed"
	LabelShipped          = "Order Shipped"
	LabelDelivered        = "Delivered"
	LabelCancelled        = "Cancelled"
)

// Step is one entry of an order's progress timeline. Steps are derived from a
// snapshot on demand and never updated in place.
type Step struct {
	Kind      StepKind   `json:"kind"`
	Label     string     `json:"label"`
	Completed bool       `json:"completed"`
	Partial   bool       `json:"isPartial,omitempty"`
	Loading   bool       `json:"isLoading,omitempty"`
	Cancelled bool       `json:"isCancelled,omitempty"`
	Date      *time.Time `json:"date"`
}

// candidate builds one step and reports whether it is visible.
type candidate func(s *Snapshot, p Progress, verifying bool) (Step, bool)

// Emission order is fixed.
var candidates = []candidate{
	placedStep,
	paymentStep,
	shippingStep,
	deliveryStep,
	cancelledStep,
}

// DeriveTimeline returns the visible progress steps of s. verifying is true
// while a payment verification for the order is outstanding.
//
// The result is the path already taken plus at most one pending step per
// stage; a step that is neither reached nor next is left out rather than
// shown as pending. A cancelled order never shows shipping or delivery.
func DeriveTimeline(s *Snapshot, verifying bool) []Step {
	p := Summarize(s.Items)
	steps := make([]Step, 0, len(candidates))
	for _, c := range candidates {
		if st, ok := c(s, p, verifying); ok {
			steps = append(steps, st)
		}
	}
	return steps
}

func placedStep(s *Snapshot, _ Progress, _ bool) (Step, bool) {
	created := s.CreatedAt
	return Step{Kind: StepPlaced, Label: LabelPlaced, Completed: true, Date: &created}, true
}

func paymentStep(s *Snapshot, _ Progress, verifying bool) (Step, bool) {
	if verifying {
		return Step{Kind: StepPaymentVerifying, Label: LabelPaymentVerifying, Loading: true}, true
	}
	// an unpaid order shows payment as its next step
	return Step{
		Kind:      StepPayment,
		Label:     LabelPaymentConfirmed,
		Completed: s.PaidAt != nil,
		Date:      s.PaidAt,
	}, true
}

func shippingStep(s *Snapshot, p Progress, _ bool) (Step, bool) {
	if s.Cancelled() {
		return Step{}, false
	}
	switch {
	case p.FullyShipped():
		return Step{Kind: StepShipping, Label: LabelShipped, Completed: true, Date: s.ShippedAt}, true
	case p.PartiallyShipped():
		return Step{Kind: StepShipping, Label: "Shipping (" + ItemFraction(p.Shipped, p.Total) + ")", Partial: true}, true
	case s.PaidAt != nil:
		return Step{Kind: StepShipping, Label: LabelShipped}, true
	}
	return Step{}, false
}

func deliveryStep(s *Snapshot, p Progress, _ bool) (Step, bool) {
	if s.Cancelled() {
		return Step{}, false
	}
	switch {
	case p.FullyDelivered():
		return Step{Kind: StepDelivery, Label: LabelDelivered, Completed: true, Date: s.DeliveredAt}, true
	case p.PartiallyDelivered():
		return Step{Kind: StepDelivery, Label: LabelDelivered + " (" + ItemFraction(p.Delivered, p.Total) + ")", Partial: true}, true
	case p.FullyShipped():
		return Step{Kind: StepDelivery, Label: LabelDelivered}, true
	}
	return Step{}, false
}

func cancelledStep(s *Snapshot, _ Progress, _ bool) (Step, bool) {
	if !s.Cancelled() {
		return Step{}, false
	}
	return Step{Kind: StepCancelled, Label: LabelCancelled, Completed: true, Cancelled: true, Date: s.CancelledAt}, true
}
