package orders

// Actions says which shopper actions a snapshot allows. Always recompute it
// from the latest snapshot.
type Actions struct {
	Cancel bool `json:"cancel"`
	Pay    bool `json:"pay"`
}

// CanCancel: nothing has shipped and the order is not already cancelled.
func CanCancel(s *Snapshot) bool {
	return s.ShippedAt == nil && !s.Cancelled()
}

// CanPay: unpaid and not cancelled.
func CanPay(s *Snapshot) bool {
	return s.PaidAt == nil && !s.Cancelled()
}

func ActionsFor(s *Snapshot) Actions {
	return Actions{Cancel: CanCancel(s), Pay: CanPay(s)}
}
