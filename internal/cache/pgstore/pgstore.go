// Package pgstore keeps cache entries in PostgreSQL through a pgx connection
// pool. It registers the "postgres" cache backend.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ares/internal/cache"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a PostgreSQL backed cache.Store.
type Store struct {
	pool  *pgxpool.Pool
	table string // quoted
}

var _ cache.Store = (*Store)(nil)

func init() {
	cache.Register("postgres", func(ctx context.Context, cfg cache.Config) (cache.Store, error) {
		return Open(ctx, cfg.DSN, cfg.Table)
	})
}

// Open connects, pings and creates the cache table when missing.
func Open(ctx context.Context, dsn, table string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	if table == "" {
		table = cache.DefaultTable
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s := &Store{pool: pool, table: pgFQN(table)}
	if _, err := pool.Exec(ctx, createTableSQL(s.table)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create table %s: %w", table, err)
	}
	return s, nil
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	cache_key  TEXT PRIMARY KEY,
	payload    BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, table)
}

func upsertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (cache_key, payload, updated_at) VALUES ($1, $2, now())
ON CONFLICT (cache_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`, table)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var ok bool
	q := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE cache_key = $1)", s.table)
	if err := s.pool.QueryRow(ctx, q, key).Scan(&ok); err != nil {
		return false, fmt.Errorf("postgres: exists %s: %w", key, err)
	}
	return ok, nil
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	var b []byte
	q := fmt.Sprintf("SELECT payload FROM %s WHERE cache_key = $1", s.table)
	err := s.pool.QueryRow(ctx, q, key).Scan(&b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cache.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: read %s: %w", key, err)
	}
	return b, nil
}

func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	if _, err := s.pool.Exec(ctx, upsertSQL(s.table), key, data); err != nil {
		return fmt.Errorf("postgres: write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// pgIdent safely quotes an identifier for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.ares_cache".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}
