package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Cache is a small TTL cache persisted as one JSON file. The scraper uses it
// to remember which offers endpoint variant last worked for an ASIN; seller
// and price data themselves are never cached because they are time-sensitive.
type Cache struct {
	path    string
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	TTL       time.Duration   `json:"ttl"`
}

// New loads the cache at path, starting fresh if the file is missing or
// corrupt.
func New(path string) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: make(map[string]entry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c.entries); err != nil {
			// Corrupt cache, start fresh.
			c.entries = make(map[string]entry)
		}
	}
	return c, nil
}

// Get unmarshals the cached value for key into target. Returns false when the
// key is missing or expired.
func (c *Cache) Get(key string, target interface{}) bool {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	if e.TTL > 0 && time.Since(e.Timestamp) > e.TTL {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return false
	}
	return json.Unmarshal(e.Data, target) == nil
}

// Put stores value under key with the given TTL and persists the cache. A
// zero TTL never expires.
func (c *Cache) Put(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = entry{Data: data, Timestamp: time.Now(), TTL: ttl}
	c.mu.Unlock()

	return c.save()
}

func (c *Cache) save() error {
	c.mu.RLock()
	data, err := json.Marshal(c.entries)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// Len reports the number of live entries, counting expired ones not yet
// evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
