package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cartsSchema = `
CREATE TABLE IF NOT EXISTS carts (
	session_id TEXT PRIMARY KEY,
	items      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PGPersister stores carts in the carts table, one row per session.
type PGPersister struct{ DB *pgxpool.Pool }

func (p *PGPersister) EnsureSchema(ctx context.Context) error {
	_, err := p.DB.Exec(ctx, cartsSchema)
	return err
}

func (p *PGPersister) Load(ctx context.Context, sessionID string) ([]LineItem, error) {
	var raw []byte
	err := p.DB.QueryRow(ctx, `SELECT items FROM carts WHERE session_id=$1`, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return items, nil
}

func (p *PGPersister) Save(ctx context.Context, sessionID string, items []LineItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	_, err = p.DB.Exec(ctx, `
		INSERT INTO carts(session_id, items, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()
	`, sessionID, b)
	return err
}

func (p *PGPersister) Delete(ctx context.Context, sessionID string) error {
	_, err := p.DB.Exec(ctx, `DELETE FROM carts WHERE session_id=$1`, sessionID)
	return err
}
