package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotExist is returned by Store.Read for an unknown key.
var ErrNotExist = errors.New("cache: entry does not exist")

// Store persists opaque payloads by key. There is no TTL and no eviction;
// entries expire implicitly when the date bucket in their key rolls over.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Read(ctx context.Context, key string) ([]byte, error)
	// Write creates or replaces the entry.
	Write(ctx context.Context, key string, data []byte) error
	Close() error
}

// Config selects and configures a Store backend.
type Config struct {
	Kind  string // file, sqlite, postgres, mssql
	Dir   string // file backend root; entries live under <Dir>/ares
	DSN   string // database backends
	Table string // database backends; DefaultTable when empty
}

// DefaultTable is the table database backends keep entries in.
const DefaultTable = "ares_cache"

// Factory opens a Store for cfg.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register makes a backend available to Open under kind. Backends call it
// from init; a later registration replaces an earlier one.
func Register(kind string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[kind] = f
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open constructs the Store registered for cfg.Kind. An empty kind selects
// the file backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Kind == "" {
		cfg.Kind = "file"
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	factoriesMu.RLock()
	f, ok := factories[cfg.Kind]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("cache: unsupported backend %q (registered: %v)", cfg.Kind, ListKinds())
	}
	return f(ctx, cfg)
}
