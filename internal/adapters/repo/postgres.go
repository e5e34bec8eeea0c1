package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tiktroq/internal/infra/metrics"
)

// Postgres — Backend, хранящий коллекции в таблице collections (jsonb).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 5*time.Second)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// EnsureSchema создаёт таблицу коллекций, если её нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS collections (
	key TEXT PRIMARY KEY,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	metrics.ObserveNetworkRequest("postgres", "create_table", "collections", start, err)
	return err
}

// Load реализует Backend.
func (p *Postgres) Load(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	var payload []byte
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT payload FROM collections WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "collections_select", key, start, nil)
		return nil, false, nil
	}
	metrics.ObserveNetworkRequest("postgres", "collections_select", key, start, err)
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Save реализует Backend.
func (p *Postgres) Save(ctx context.Context, key string, payload []byte) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO collections (key, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
`, key, payload)
	metrics.ObserveNetworkRequest("postgres", "collections_upsert", key, start, err)
	return err
}
