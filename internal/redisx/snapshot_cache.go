package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ariefcatur/go-storefront-core/internal/orders"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// SnapshotCache holds recently fetched order snapshots for a short TTL, one
// entry per order and shopper scope. Entries are only ever replaced or
// dropped, never patched.
type SnapshotCache struct {
	Client redis.Cmdable
}

// KEYS: gen, entry, index. ARGV: expected gen, value, ttl ms.
var setIfCurrent = redis.NewScript(`
local g = redis.call('GET', KEYS[1]) or '0'
if g ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
redis.call('SADD', KEYS[3], KEYS[2])
redis.call('PEXPIRE', KEYS[3], ARGV[3])
return 1
`)

// KEYS: gen, index. ARGV: gen ttl ms.
var invalidate = redis.NewScript(`
redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[1])
local ks = redis.call('SMEMBERS', KEYS[2])
for _, k in ipairs(ks) do redis.call('DEL', k) end
redis.call('DEL', KEYS[2])
return #ks
`)

func (c *SnapshotCache) Get(ctx context.Context, scope, orderNumber string) (*orders.Snapshot, error) {
	b, err := c.Client.Get(ctx, fmt.Sprintf(KeyOrderSnapshot, orderNumber, scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}
	var s orders.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// Generation returns the order's invalidation counter. Read it before
// fetching and pass it to Set.
func (c *SnapshotCache) Generation(ctx context.Context, orderNumber string) (int64, error) {
	n, err := c.Client.Get(ctx, fmt.Sprintf(KeyOrderSnapshotGen, orderNumber)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Set stores s for scope unless the order was invalidated since gen was read.
// It reports whether the entry was written.
func (c *SnapshotCache) Set(ctx context.Context, scope string, gen int64, s *orders.Snapshot) (bool, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}
	keys := []string{
		fmt.Sprintf(KeyOrderSnapshotGen, s.OrderNumber),
		fmt.Sprintf(KeyOrderSnapshot, s.OrderNumber, scope),
		fmt.Sprintf(KeyOrderSnapshotIndex, s.OrderNumber),
	}
	n, err := setIfCurrent.Run(ctx, c.Client, keys,
		strconv.FormatInt(gen, 10), b, TTLSnapshot.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis set snapshot: %w", err)
	}
	return n == 1, nil
}

// Delete drops every scoped entry of the order and bumps its generation, so
// fetches already in flight cannot repopulate it.
func (c *SnapshotCache) Delete(ctx context.Context, orderNumber string) error {
	keys := []string{
		fmt.Sprintf(KeyOrderSnapshotGen, orderNumber),
		fmt.Sprintf(KeyOrderSnapshotIndex, orderNumber),
	}
	return invalidate.Run(ctx, c.Client, keys, TTLSnapshotGen.Milliseconds()).Err()
}
