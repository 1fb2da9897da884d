package collections

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 30 * time.Second

type cachedRead struct {
	data      []byte
	fetchedAt time.Time
}

// FileStore persists each collection as a pretty-printed JSON file under a
// single data directory, with a short-lived read cache. Writes drop the cache
// entry before returning so a read issued later in the same request always
// observes the new data.
type FileStore struct {
	dir   string
	ttl   time.Duration
	clock func() time.Time

	mu    sync.Mutex
	cache map[string]cachedRead
}

// FileStoreOption customises FileStore construction.
type FileStoreOption func(*FileStore)

// WithCacheTTL overrides the read-cache lifetime. Zero or negative disables
// caching entirely.
func WithCacheTTL(ttl time.Duration) FileStoreOption {
	return func(s *FileStore) {
		s.ttl = ttl
	}
}

// WithClock injects the time source used for cache expiry, for tests.
func WithClock(clock func() time.Time) FileStoreOption {
	return func(s *FileStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewFileStore constructs a store rooted at dir, creating it when absent.
func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("collections: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("collections: create data directory: %w", err)
	}

	store := &FileStore{
		dir:   dir,
		ttl:   defaultCacheTTL,
		clock: time.Now,
		cache: make(map[string]cachedRead),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Read returns the raw JSON document for the named collection. Missing or
// empty files read as an empty payload.
func (s *FileStore) Read(_ context.Context, name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		s.mu.Lock()
		entry, ok := s.cache[name]
		s.mu.Unlock()
		if ok && s.clock().Sub(entry.fetchedAt) < s.ttl {
			return append([]byte(nil), entry.data...), nil
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %q: %v", ErrUnavailable, name, err)
	}
	raw = []byte(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return nil, nil
	}

	if s.ttl > 0 {
		s.mu.Lock()
		s.cache[name] = cachedRead{data: append([]byte(nil), raw...), fetchedAt: s.clock()}
		s.mu.Unlock()
	}
	return raw, nil
}

// Write persists the raw JSON document and invalidates the cached copy before
// returning.
func (s *FileStore) Write(_ context.Context, name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrUnavailable, name, err)
	}
	s.Invalidate(name)
	return nil
}

// Invalidate drops the cached copy of the named collection.
func (s *FileStore) Invalidate(name string) {
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
}

func (s *FileStore) path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name+".json"), nil
}
