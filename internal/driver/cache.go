package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"questdsl/internal/diag"
	"questdsl/internal/source"
)

// Bump when the layout of CachePayload changes.
const cacheSchemaVersion uint16 = 1

// CacheKey identifies one analysis: the unit bytes, the descriptor bytes
// and whatever else changes the outcome.
type CacheKey uint64

// KeyOf hashes parts in order. Each part is length-prefixed so the split
// between parts matters.
func KeyOf(parts ...[]byte) CacheKey {
	d := xxhash.New()
	var size [8]byte
	for _, p := range parts {
		n := uint64(len(p))
		for i := range size {
			size[i] = byte(n >> (8 * i))
		}
		_, _ = d.Write(size[:])
		_, _ = d.Write(p)
	}
	return CacheKey(d.Sum64())
}

func (k CacheKey) String() string { return fmt.Sprintf("%016x", uint64(k)) }

// CachePayload is what a cached analysis replays: its diagnostics and the
// file table their spans point into.
type CachePayload struct {
	Schema      uint16            `msgpack:"schema"`
	Path        string            `msgpack:"path"`
	Files       []string          `msgpack:"files"`
	Diagnostics []diag.Diagnostic `msgpack:"diagnostics"`
	Failed      bool              `msgpack:"failed"`
}

// Cache stores payloads on disk by key. A nil *Cache is a valid cache that
// never hits. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// OpenCache opens the cache under $XDG_CACHE_HOME/app, or ~/.cache/app.
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenCacheDir(filepath.Join(base, app))
}

func OpenCacheDir(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key CacheKey) string {
	return filepath.Join(c.dir, "units", key.String()+".mp")
}

// Put writes payload under key, replacing the old entry atomically.
func (c *Cache) Put(key CacheKey, payload *CachePayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	stored := *payload
	stored.Schema = cacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(&stored); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the payload stored under key. Entries written with another
// schema are treated as missing.
func (c *Cache) Get(key CacheKey) (*CachePayload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var out CachePayload
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("cache entry %s: %w", key, err)
	}
	if out.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return &out, true, nil
}

// DropAll removes every entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// PayloadOf captures the replayable part of r.
func PayloadOf(r *Result) *CachePayload {
	p := &CachePayload{Path: r.Path, Failed: r.Failed()}
	if r.Bag != nil {
		p.Diagnostics = r.Bag.Items()
	}
	if r.Files != nil {
		for id := 1; id <= r.Files.Len(); id++ {
			p.Files = append(p.Files, r.Files.Path(source.FileID(id)))
		}
	}
	return p
}

// Replay turns a payload back into a result carrying only diagnostics.
func (p *CachePayload) Replay() *Result {
	bag := diag.NewBag(0)
	for _, d := range p.Diagnostics {
		bag.Add(d)
	}
	// paths were registered in ID order, so re-adding them restores the IDs
	files := source.NewFileSet()
	for _, path := range p.Files {
		files.AddVirtual(path, nil)
	}
	return &Result{Path: p.Path, Files: files, Bag: bag, Cached: true}
}
