package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront-core/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// RedisPersister keeps each cart as one JSON value with a sliding TTL.
type RedisPersister struct {
	Client redis.Cmdable
}

func (p *RedisPersister) Load(ctx context.Context, sessionID string) ([]LineItem, error) {
	b, err := p.Client.Get(ctx, fmt.Sprintf(redisx.KeyCart, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	var items []LineItem
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return items, nil
}

func (p *RedisPersister) Save(ctx context.Context, sessionID string, items []LineItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := p.Client.Set(ctx, fmt.Sprintf(redisx.KeyCart, sessionID), b, redisx.TTLCart).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (p *RedisPersister) Delete(ctx context.Context, sessionID string) error {
	return p.Client.Del(ctx, fmt.Sprintf(redisx.KeyCart, sessionID)).Err()
}
