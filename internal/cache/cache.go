// Package cache implements the date-bucketed response cache. Entries are
// keyed by operation, subject and the current date bucket, so a lookup is
// answered from cache for the rest of its bucket and naturally refreshed
// after rollover. Persistence is delegated to a pluggable Store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ares/internal/logger"
	"ares/internal/metrics"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

// Version is the envelope version written by Put. Entries with another
// version are treated as misses.
const Version = 1

// Entry is the on-store envelope of a normalized result.
type Entry struct {
	V    int             `json:"v"`
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Options configures a ResponseCache.
type Options struct {
	// Strategy is the FormatBucket layout; DefaultStrategy when empty.
	Strategy string
	Now      func() time.Time
	Logger   *zap.Logger
}

// ResponseCache stores typed results and raw payloads. A nil
// *ResponseCache is valid and caches nothing.
type ResponseCache struct {
	store Store
	now   func() time.Time
	log   *zap.Logger

	mu       sync.RWMutex
	strategy string
}

// New wraps store.
func New(store Store, opts Options) *ResponseCache {
	if opts.Strategy == "" {
		opts.Strategy = DefaultStrategy
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ResponseCache{
		store:    store,
		strategy: opts.Strategy,
		now:      opts.Now,
		log:      logger.OrNop(opts.Logger).Named("cache"),
	}
}

// SetStrategy replaces the bucket layout for subsequent lookups.
func (c *ResponseCache) SetStrategy(layout string) {
	if c == nil || layout == "" {
		return
	}
	c.mu.Lock()
	c.strategy = layout
	c.mu.Unlock()
}

// Bucket returns the current date bucket.
func (c *ResponseCache) Bucket() string {
	if c == nil {
		return FormatBucket(DefaultStrategy, time.Now())
	}
	c.mu.RLock()
	layout := c.strategy
	c.mu.RUnlock()
	return FormatBucket(layout, c.now())
}

// Get decodes the entry under key into v and reports whether it was a hit.
// Read failures and entries that do not decode as kind are logged and
// reported as misses.
func (c *ResponseCache) Get(ctx context.Context, key, kind string, v any) bool {
	if c == nil || c.store == nil {
		return false
	}

	ok, err := c.store.Exists(ctx, key)
	if err != nil {
		c.log.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		metrics.RecordCache(kind, "error")
		return false
	}
	if !ok {
		metrics.RecordCache(kind, "miss")
		return false
	}

	b, err := c.store.Read(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotExist) {
			c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.RecordCache(kind, "miss")
		return false
	}

	if err := decodeEntry(b, kind, v); err != nil {
		c.log.Warn("ignoring corrupt cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCache(kind, "corrupt")
		return false
	}
	metrics.RecordCache(kind, "hit")
	return true
}

func decodeEntry(b []byte, kind string, v any) error {
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if e.V != Version {
		return fmt.Errorf("envelope version %d, want %d", e.V, Version)
	}
	if e.Kind != kind {
		return fmt.Errorf("envelope kind %q, want %q", e.Kind, kind)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return nil
}

// Put stores v under key in a versioned envelope, replacing any previous
// entry.
func (c *ResponseCache) Put(ctx context.Context, key, kind string, v any) error {
	if c == nil || c.store == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", kind, err)
	}
	b, err := json.Marshal(Entry{V: Version, Kind: kind, Data: data})
	if err != nil {
		return fmt.Errorf("cache: encode envelope: %w", err)
	}
	if err := c.store.Write(ctx, key, b); err != nil {
		metrics.RecordCache(kind, "write_error")
		return err
	}
	return nil
}

// PutRaw stores an unparsed payload as is.
func (c *ResponseCache) PutRaw(ctx context.Context, key string, raw []byte) error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Write(ctx, key, raw)
}

// Close closes the underlying store.
func (c *ResponseCache) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}

// EntityKey is the key of a per-company result: <op>_<id>_<bucket>.
func EntityKey(op string, id int, bucket string) string {
	return fmt.Sprintf("%s_%d_%s", op, id, bucket)
}

// RawEntityKey is the sibling of EntityKey holding the raw payload.
func RawEntityKey(op string, id int, bucket string) string {
	return fmt.Sprintf("%s_raw_%d_%s", op, id, bucket)
}

// SearchKey is the key of a name search: find_<bucket>_<hash>. The hash is
// taken over the name and city exactly as the caller passed them.
func SearchKey(bucket, name, city string) string {
	return "find_" + bucket + "_" + searchHash(name, city)
}

// RawSearchKey is the sibling of SearchKey holding the raw payload.
func RawSearchKey(bucket, name, city string) string {
	return "find_raw_" + bucket + "_" + searchHash(name, city)
}

func searchHash(name, city string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(name+city))
}
