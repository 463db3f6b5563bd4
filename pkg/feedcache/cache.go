// Package feedcache is a disk-persisted TTL cache for exposure-feed responses,
// so repeated runs within the feed's publication cadence never hit the network.
package feedcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

const cacheFile = "feed-cache.gob"

// Entry is one cached response body with its expiry instant.
type Entry struct {
	ExpiresAt time.Time
	Data      []byte
}

// Cache keeps feed responses in an otter cache keyed by URL hash and persists
// surviving entries to a gob file on Close.
type Cache struct {
	cache  otter.Cache[string, Entry]
	logger *slog.Logger
	dir    string
	ttl    time.Duration
	mu     sync.Mutex
}

// New opens (or creates) the cache under dir with the given entry lifetime and
// loads any still-fresh entries persisted by a previous run.
func New(dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	cache := otter.Must(&otter.Options[string, Entry]{
		MaximumSize:      1_000,
		InitialCapacity:  16,
		ExpiryCalculator: otter.ExpiryWriting[string, Entry](ttl),
	})

	c := &Cache{
		cache:  *cache,
		dir:    dir,
		ttl:    ttl,
		logger: logger,
	}
	if err := c.loadFromDisk(); err != nil {
		logger.Warn("failed to load feed cache from disk", "error", err)
	}
	logger.Debug("feed cache initialized", "dir", dir, "entries", c.cache.EstimatedSize())
	return c, nil
}

func cacheKey(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

// Get returns the cached body for url if present and not expired.
func (c *Cache) Get(url string) ([]byte, bool) {
	entry, found := c.cache.GetIfPresent(cacheKey(url))
	if !found {
		c.logger.Debug("feed cache miss", "url", url, "reason", "not_found")
		return nil, false
	}
	// Otter expires on its own; the timestamp check also covers entries
	// loaded from disk with a shorter remaining lifetime.
	if time.Now().After(entry.ExpiresAt) {
		c.logger.Debug("feed cache miss", "url", url, "reason", "expired", "expired_at", entry.ExpiresAt)
		c.cache.Invalidate(cacheKey(url))
		return nil, false
	}
	return entry.Data, true
}

// Set stores a response body for url with the cache's TTL.
func (c *Cache) Set(url string, data []byte) {
	entry := Entry{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
	}
	c.cache.Set(cacheKey(url), entry)
	c.logger.Debug("feed cache set", "url", url, "expires_at", entry.ExpiresAt, "size", len(data))
}

func (c *Cache) loadFromDisk() error {
	path := filepath.Join(c.dir, cacheFile)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			c.logger.Debug("failed to close cache file", "error", closeErr)
		}
	}()

	var entries map[string]Entry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}

	now := time.Now()
	valid := 0
	for key, entry := range entries {
		if now.Before(entry.ExpiresAt) {
			c.cache.Set(key, entry)
			valid++
		}
	}
	c.logger.Debug("loaded feed cache from disk", "path", path, "total", len(entries), "valid", valid)
	return nil
}

func (c *Cache) saveToDisk() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := filepath.Join(c.dir, cacheFile)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) {
			c.logger.Debug("failed to remove temp file", "error", removeErr)
		}
	}()

	entries := make(map[string]Entry)
	now := time.Now()
	c.cache.All()(func(key string, entry Entry) bool {
		if now.Before(entry.ExpiresAt) {
			entries[key] = entry
		}
		return true
	})

	if err := gob.NewEncoder(file).Encode(entries); err != nil {
		return fmt.Errorf("encoding cache to file: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing cache file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}
	c.logger.Debug("feed cache saved to disk", "entries", len(entries), "path", path)
	return nil
}

// Close persists the cache to disk. The tool is short-lived, so there is no
// periodic save; Close is the only flush point.
func (c *Cache) Close() error {
	if err := c.saveToDisk(); err != nil {
		c.logger.Error("feed cache save failed", "error", err)
		return err
	}
	return nil
}

// Client is the minimal HTTP surface CachedClient wraps.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// CachedClient serves GET responses from the cache when possible and caches
// successful fetches. A nil cache degrades to pass-through.
type CachedClient struct {
	cache  *Cache
	client Client
	logger *slog.Logger
}

// NewCachedClient wraps client with cache.
func NewCachedClient(cache *Cache, client Client, logger *slog.Logger) *CachedClient {
	return &CachedClient{cache: cache, client: client, logger: logger}
}

// Do performs req, consulting the cache for GET requests.
func (c *CachedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.cache == nil || req.Method != http.MethodGet {
		return c.client.Do(req.WithContext(ctx))
	}

	url := req.URL.String()
	if data, found := c.cache.Get(url); found {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(data)),
			Header:     make(http.Header),
			Request:    req,
		}
		resp.Header.Set("X-From-Cache", "true")
		return resp, nil
	}

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body", "error", closeErr)
		}
		if err != nil {
			return nil, err
		}
		c.cache.Set(url, body)
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}
	return resp, nil
}
