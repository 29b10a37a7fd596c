package events

const (
	TopicCartMutated        = "storefront.cart.mutated"
	TopicCheckoutSubmitted  = "storefront.checkout.submitted"
	TopicPaymentVerified    = "storefront.payment.verified"
	TopicOrderCancelled     = "storefront.order.cancelled"
	TopicFulfillmentUpdated = "order.fulfillment.updated"
)

// Partition key = cart session or order number, so events of one aggregate stay ordered.
func PartitionKey(id string) []byte { return []byte(id) }
