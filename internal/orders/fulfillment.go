package orders

// Progress counts how far an order's line items have moved.
type Progress struct {
	Shipped   int // SHIPPED or DELIVERED
	Delivered int
	Total     int
}

func Summarize(items []LineItem) Progress {
	p := Progress{Total: len(items)}
	for _, it := range items {
		if it.Status.Shipped() {
			p.Shipped++
		}
		if it.Status == StatusDelivered {
			p.Delivered++
		}
	}
	return p
}

func (p Progress) FullyShipped() bool       { return p.Total > 0 && p.Shipped == p.Total }
func (p Progress) PartiallyShipped() bool   { return p.Shipped > 0 && p.Shipped < p.Total }
func (p Progress) FullyDelivered() bool     { return p.Total > 0 && p.Delivered == p.Total }
func (p Progress) PartiallyDelivered() bool { return p.Delivered > 0 && p.Delivered < p.Total }
