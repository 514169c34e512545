package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client wraps the Supabase Postgres pool. A nil *Client means the backend
// is not configured; that is the normal local-only mode, not an error.
type Client struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool for the given DSN. An empty DSN returns (nil, nil):
// callers check Enabled() instead of branching on config themselves.
func Connect(ctx context.Context, dsn string) (*Client, error) {
	if dsn == "" {
		return nil, nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("supabase: parse dsn: %w", err)
	}
	cfg.MaxConns = 5
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("supabase: new pool: %w", err)
	}

	return &Client{Pool: pool}, nil
}

// Enabled reports whether a backend connection exists.
func (c *Client) Enabled() bool {
	return c != nil && c.Pool != nil
}

// Ping verifies connectivity. Disabled clients report an error so health
// probes fall through to other signals.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return fmt.Errorf("supabase: not configured")
	}
	return c.Pool.Ping(ctx)
}

// Close releases the pool. Safe on nil clients.
func (c *Client) Close() {
	if c.Enabled() {
		c.Pool.Close()
	}
}
