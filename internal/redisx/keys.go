package redisx

import "time"

const (
	// Cart per cart session: cart:{session_id} -> JSON []LineItem
	KeyCart = "cart:%s"

	// Cached order snapshot per shopper scope:
	// order_snapshot:{order_number}:{scope} -> JSON Snapshot
	KeyOrderSnapshot = "order_snapshot:{%s}:%s"
	// Scoped snapshot keys of one order, for invalidation: set of keys
	KeyOrderSnapshotIndex = "order_snapshot_idx:{%s}"
	// Bumped on every invalidation; a fetch started under an older value is not cached
	KeyOrderSnapshotGen = "order_snapshot_gen:{%s}"

	// Dedup fulfillment events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCart        = 30 * 24 * time.Hour
	TTLSnapshot    = 30 * time.Second
	TTLSnapshotGen = time.Hour
	TTLDedup       = 48 * time.Hour
)
