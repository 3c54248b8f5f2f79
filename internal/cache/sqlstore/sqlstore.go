// Package sqlstore keeps cache entries in a SQL table through database/sql.
// It registers two cache backends: "sqlite" (modernc.org/sqlite, no cgo) and
// "mssql" (github.com/microsoft/go-mssqldb). The table is created on open
// when missing.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ares/internal/cache"

	"github.com/microsoft/go-mssqldb/msdsn"

	_ "github.com/microsoft/go-mssqldb" // sqlserver driver
	_ "modernc.org/sqlite"              // sqlite driver
)

// Store is a database/sql backed cache.Store.
type Store struct {
	db *sql.DB
	d  dialect

	existsSQL string
	readSQL   string
	upsertSQL string

	now func() time.Time
}

var _ cache.Store = (*Store)(nil)

func init() {
	cache.Register(sqliteDialect.name, func(ctx context.Context, cfg cache.Config) (cache.Store, error) {
		return OpenSQLite(ctx, cfg.DSN, cfg.Table)
	})
	cache.Register(mssqlDialect.name, func(ctx context.Context, cfg cache.Config) (cache.Store, error) {
		return OpenMSSQL(ctx, cfg.DSN, cfg.Table)
	})
}

// OpenSQLite opens (or creates) a SQLite database. DSN is passed to the
// driver as is, e.g. "file:/var/cache/ares.db" or "ares.db".
func OpenSQLite(ctx context.Context, dsn, table string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	s, err := open(ctx, sqliteDialect, dsn, table)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	s.db.SetMaxOpenConns(1)
	return s, nil
}

// OpenMSSQL connects to SQL Server.
func OpenMSSQL(ctx context.Context, dsn, table string) (*Store, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	return open(ctx, mssqlDialect, dsn, table)
}

func open(ctx context.Context, d dialect, dsn, table string) (*Store, error) {
	if table == "" {
		table = cache.DefaultTable
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.name, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.name, err)
	}

	s := newStore(db, d, table)
	if _, err := db.ExecContext(ctx, d.createTable(d.ident(table))); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: create table %s: %w", d.name, table, err)
	}
	return s, nil
}

func newStore(db *sql.DB, d dialect, table string) *Store {
	t := d.ident(table)
	return &Store{
		db:        db,
		d:         d,
		existsSQL: fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE cache_key = %s", t, d.placeholder(1)),
		readSQL:   fmt.Sprintf("SELECT payload FROM %s WHERE cache_key = %s", t, d.placeholder(1)),
		upsertSQL: d.upsert(t),
		now:       time.Now,
	}
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.existsSQL, key).Scan(&n); err != nil {
		return false, fmt.Errorf("%s: exists %s: %w", s.d.name, key, err)
	}
	return n > 0, nil
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	var b []byte
	err := s.db.QueryRowContext(ctx, s.readSQL, key).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", s.d.name, key, err)
	}
	return b, nil
}

func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	if _, err := s.db.ExecContext(ctx, s.upsertSQL, key, data, s.now().UTC()); err != nil {
		return fmt.Errorf("%s: write %s: %w", s.d.name, key, err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
