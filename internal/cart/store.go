package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ariefcatur/go-storefront-core/internal/session"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrMissingProduct  = errors.New("product id is required")
)

// Mirror forwards a local add to the remote cart of a signed-in shopper.
type Mirror interface {
	MirrorAdd(ctx context.Context, add RemoteAdd) error
}

const mirrorTimeout = 10 * time.Second

// Store is the single writer of one shopper's cart. It keeps line items in
// insertion order with at most one item per key.
//
// The store does not validate variant axes. Callers must run
// ValidateSelection (or equivalent) before AddItem and always pass "" for an
// axis the product does not offer; otherwise the same logical product can end
// up under two keys.
type Store struct {
	mu    sync.Mutex
	items []LineItem
	index map[Key]int

	mirror   Mirror
	onChange func([]LineItem)
	log      *slog.Logger
	inflight *sync.WaitGroup
}

type Option func(*Store)

// WithMirror enables best-effort remote mirroring of adds.
func WithMirror(m Mirror) Option { return func(s *Store) { s.mirror = m } }

// WithOnChange registers a hook called with a copy of the items after every mutation.
func WithOnChange(fn func([]LineItem)) Option { return func(s *Store) { s.onChange = fn } }

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

// WithMirrorGroup tracks mirror calls on wg, shared with other stores.
func WithMirrorGroup(wg *sync.WaitGroup) Option { return func(s *Store) { s.inflight = wg } }

// NewStore returns a store seeded with items. Seed items are merged by key,
// so a corrupted persisted cart is repaired on load.
func NewStore(seed []LineItem, opts ...Option) *Store {
	s := &Store{index: make(map[Key]int), log: slog.Default(), inflight: &sync.WaitGroup{}}
	for _, o := range opts {
		o(s)
	}
	for _, it := range seed {
		if it.ProductID == "" || it.Quantity < 1 {
			continue
		}
		s.merge(it)
	}
	return s
}

// AddItem merges item into the cart: an existing line with the same identity
// gets its quantity increased, otherwise the item is appended. The returned
// line reflects the merged state. The key is always derived from the item's
// product and axes; a caller-supplied Key is ignored.
//
// If ctx carries a shopper session, the add is mirrored to the remote cart in
// the background. Mirror failures are logged and never undo the local change.
func (s *Store) AddItem(ctx context.Context, item LineItem) (LineItem, error) {
	if item.ProductID == "" {
		return LineItem{}, ErrMissingProduct
	}
	if item.Quantity < 1 {
		return LineItem{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	merged := s.merge(item)
	s.changed()
	s.mu.Unlock()

	s.mirrorAdd(ctx, item)
	return merged, nil
}

// RemoveItem deletes the line with key k and reports whether one existed.
func (s *Store) RemoveItem(_ context.Context, k Key) bool {
	s.mu.Lock()
	i, ok := s.index[k]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindex()
	s.changed()
	s.mu.Unlock()
	return true
}

// ClearCart empties the cart. Clearing an empty cart is a no-op.
func (s *Store) ClearCart(_ context.Context) {
	s.mu.Lock()
	s.items = nil
	s.index = make(map[Key]int)
	s.changed()
	s.mu.Unlock()
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

func (s *Store) Get(k Key) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[k]
	if !ok {
		return LineItem{}, false
	}
	return s.items[i], true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Quantity is the total number of units across all lines.
func (s *Store) Quantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Subtotal() decimal.Decimal {
	return Subtotal(s.Items())
}

// Wait blocks until all outstanding mirror calls tracked by the store's
// group have returned.
func (s *Store) Wait() { s.inflight.Wait() }

// merge must be called with mu held.
func (s *Store) merge(item LineItem) LineItem {
	item.Key = item.Identity()
	if i, ok := s.index[item.Key]; ok {
		s.items[i].Quantity += item.Quantity
		return s.items[i]
	}
	s.index[item.Key] = len(s.items)
	s.items = append(s.items, item)
	return item
}

func (s *Store) reindex() {
	s.index = make(map[Key]int, len(s.items))
	for i, it := range s.items {
		s.index[it.Key] = i
	}
}

func (s *Store) copyItems() []LineItem {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// changed runs the change hook under mu so hooks observe mutations in order.
func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange(s.copyItems())
	}
}

func (s *Store) mirrorAdd(ctx context.Context, item LineItem) {
	if s.mirror == nil {
		return
	}
	if _, ok := session.ShopperToken(ctx); !ok {
		return
	}
	add := RemoteAdd{ProductID: item.ProductID, Quantity: item.Quantity, Size: item.Size, Color: item.Color}

	// detached from the request: the shopper's response must not wait for the remote cart
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		if err := s.mirror.MirrorAdd(mctx, add); err != nil {
			s.log.WarnContext(mctx, "cart mirror failed", "product_id", add.ProductID, "err", err)
		}
	}()
}

// Subtotal sums price times quantity over items.
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}
