package payment

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight means an identical verification is already outstanding and
// this trigger was dropped.
var ErrInFlight = errors.New("payment verification already in flight")

// Verifier runs at most one verification per callback at a time.
type Verifier struct {
	mu       sync.Mutex
	inflight map[string]struct{}
	orders   map[string]int // tx_ref -> outstanding verifications
}

func NewVerifier() *Verifier {
	return &Verifier{inflight: make(map[string]struct{}), orders: make(map[string]int)}
}

// Verify calls fn for cb unless a verification of the same callback is
// outstanding, in which case it returns ErrInFlight without calling fn.
// There is no retry; a failed verification can be triggered again.
func (v *Verifier) Verify(ctx context.Context, cb Callback, fn func(context.Context, Callback) error) error {
	if !v.acquire(cb) {
		return ErrInFlight
	}
	defer v.release(cb)
	return fn(ctx, cb)
}

// Verifying reports whether a verification for the order identified by
// txRef is outstanding. A nil Verifier never is.
func (v *Verifier) Verifying(txRef string) bool {
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.orders[txRef] > 0
}

func (v *Verifier) acquire(cb Callback) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, busy := v.inflight[cb.key()]; busy {
		return false
	}
	v.inflight[cb.key()] = struct{}{}
	v.orders[cb.TxRef]++
	return true
}

func (v *Verifier) release(cb Callback) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.inflight, cb.key())
	if v.orders[cb.TxRef]--; v.orders[cb.TxRef] <= 0 {
		delete(v.orders, cb.TxRef)
	}
}
