package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCartNotFound is returned by a Persister that has nothing stored for a session.
var ErrCartNotFound = errors.New("cart not found")

// Persister stores a cart per cart session.
type Persister interface {
	Load(ctx context.Context, sessionID string) ([]LineItem, error)
	Save(ctx context.Context, sessionID string, items []LineItem) error
	Delete(ctx context.Context, sessionID string) error
}

const (
	persistTimeout = 2 * time.Second
	DefaultIdleTTL = 15 * time.Minute
)

// Registry hands out one Store per cart session, loading it from the
// Persister on first use and writing it back after every mutation. Stores
// idle for longer than the idle TTL are dropped by Sweep and reloaded from the
// Persister on their next use.
type Registry struct {
	persist Persister
	mirror  Mirror
	log     *slog.Logger
	idleTTL time.Duration
	now     func() time.Time

	mu    sync.Mutex
	carts map[string]*entry

	mirrors sync.WaitGroup
}

type entry struct {
	store    *Store
	lastUsed time.Time
}

type RegistryOption func(*Registry)

// WithIdleTTL sets how long an unused store stays in memory.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.idleTTL = d
		}
	}
}

func NewRegistry(p Persister, m Mirror, log *slog.Logger, opts ...RegistryOption) *Registry {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{
		persist: p,
		mirror:  m,
		log:     log,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
		carts:   make(map[string]*entry),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Open returns the store for sessionID, for mutation. A load failure other
// than ErrCartNotFound is returned; the session is not cached in that case.
// The Persister is read without holding the registry lock.
func (r *Registry) Open(ctx context.Context, sessionID string) (*Store, error) {
	if s, ok := r.cached(sessionID); ok {
		return s, nil
	}

	seed, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithLogger(r.log), WithOnChange(r.saver(sessionID)), WithMirrorGroup(&r.mirrors)}
	if r.mirror != nil {
		opts = append(opts, WithMirror(r.mirror))
	}
	s := NewStore(seed, opts...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.carts[sessionID]; ok {
		e.lastUsed = r.now()
		return e.store, nil
	}
	r.carts[sessionID] = &entry{store: s, lastUsed: r.now()}
	return s, nil
}

// Items returns the cart of sessionID without registering a store for it, so
// reading a cart that was never mutated does not keep anything in memory.
func (r *Registry) Items(ctx context.Context, sessionID string) ([]LineItem, error) {
	if s, ok := r.cached(sessionID); ok {
		return s.Items(), nil
	}
	seed, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewStore(seed).Items(), nil
}

// Len is the number of stores held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

// Sweep drops stores unused for longer than the idle TTL and returns how
// many it dropped. Their persisted state is already up to date; outstanding
// mirror calls are still awaited by Wait. Without a Persister an evicted cart
// is gone.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.carts {
		if e.lastUsed.After(cutoff) {
			continue
		}
		delete(r.carts, id)
		n++
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug("idle carts evicted", "count", n)
			}
		}
	}
}

// Wait blocks until every store, open or evicted, has finished its mirror
// calls. Call it once no more mutations can arrive.
func (r *Registry) Wait() { r.mirrors.Wait() }

func (r *Registry) cached(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.carts[sessionID]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.store, true
}

func (r *Registry) load(ctx context.Context, sessionID string) ([]LineItem, error) {
	if r.persist == nil {
		return nil, nil
	}
	items, err := r.persist.Load(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}
	return items, nil
}

func (r *Registry) saver(sessionID string) func([]LineItem) {
	if r.persist == nil {
		return nil
	}
	return func(items []LineItem) {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		var err error
		if len(items) == 0 {
			err = r.persist.Delete(ctx, sessionID)
		} else {
			err = r.persist.Save(ctx, sessionID, items)
		}
		if err != nil {
			r.log.Warn("cart persist failed", "cart_session", sessionID, "err", err)
		}
	}
}
