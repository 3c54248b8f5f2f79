package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

// SubDir is the directory created under the configured root.
const SubDir = "ares"

// keyCleaner matches characters that are not safe in a file name.
var keyCleaner = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// FileStore keeps one file per entry: <root>/ares/<key>.json.
type FileStore struct {
	dir string
}

func init() {
	Register("file", func(_ context.Context, cfg Config) (Store, error) {
		return NewFileStore(cfg.Dir)
	})
}

// NewFileStore creates the cache directory under root (os.TempDir() when
// empty) if it does not exist yet.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, SubDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory entries are written to.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, keyCleaner.ReplaceAllString(key, "_")+".json")
}

func (s *FileStore) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("cache: stat %s: %w", key, err)
	}
}

func (s *FileStore) Read(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", key, err)
	}
	return b, nil
}

// Write replaces the entry atomically: data goes to a temp file in the same
// directory which is then renamed over the target.
func (s *FileStore) Write(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
