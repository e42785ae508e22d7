// internal/adapters/out/db/cart_storage_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	cartdom "atelier/internal/domain/cart"
)

// CartStoragePG is a PostgreSQL implementation of cart.Storage: one row per
// storage origin in a plain key/value table. Used when the engine runs
// inside a server-rendered storefront and "local storage" is a per-session
// row rather than a client file.
//
// Schema (EnsureSchema):
//
//	CREATE TABLE IF NOT EXISTS cart_states (
//	  origin     TEXT PRIMARY KEY,
//	  payload    JSONB NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL
//	)
type CartStoragePG struct {
	db     *sql.DB
	origin string
}

func NewCartStoragePG(db *sql.DB, origin string) (*CartStoragePG, error) {
	o := strings.TrimSpace(origin)
	if db == nil {
		return nil, errors.New("cart_storage_pg: db is nil")
	}
	if o == "" {
		return nil, errors.New("cart_storage_pg: origin is empty")
	}
	return &CartStoragePG{db: db, origin: o}, nil
}

// EnsureSchema creates the backing table when absent.
func (r *CartStoragePG) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("cart_storage_pg: db is nil")
	}
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS cart_states (
  origin     TEXT PRIMARY KEY,
  payload    JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)
`)
	return err
}

func (r *CartStoragePG) Save(ctx context.Context, p cartdom.Persisted) error {
	if r == nil || r.db == nil {
		return errors.New("cart_storage_pg: db is nil")
	}

	buf, err := cartdom.EncodePersisted(p)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO cart_states (origin, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (origin) DO UPDATE
SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
`, r.origin, buf, time.Now().UTC())
	return err
}

func (r *CartStoragePG) Load(ctx context.Context) (cartdom.Persisted, bool, error) {
	empty := cartdom.Persisted{Items: []cartdom.Item{}}
	if r == nil || r.db == nil {
		return empty, false, errors.New("cart_storage_pg: db is nil")
	}

	var buf []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM cart_states WHERE origin = $1`, r.origin,
	).Scan(&buf)
	if errors.Is(err, sql.ErrNoRows) {
		return empty, false, nil
	}
	if err != nil {
		return empty, false, err
	}

	p, err := cartdom.DecodePersisted(buf)
	if err != nil {
		return empty, false, err
	}
	return p, true, nil
}
