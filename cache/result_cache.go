package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var bucketName = []byte("results")

const maxStoredQueryLen = 100

// Entry is a cached pipeline result plus write metadata. Query holds a
// truncated copy of the original query for diagnostics only; lookups go
// through the hashed key.
type Entry struct {
	Query     string          `json:"query"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Stats is a point-in-time snapshot of cache behavior.
type Stats struct {
	Entries    int   `json:"entries"`
	MaxEntries int   `json:"max_entries"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
}

// ResultCache maps a normalized query to a previously computed pipeline
// result with a TTL. Entries live in memory; when a bolt path is configured
// they are also written through to disk and reloaded on startup.
type ResultCache struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	ttl        time.Duration
	maxEntries int
	hits       int64
	misses     int64
	evictions  int64

	db     *bolt.DB
	logger *zap.Logger
}

// NewResultCache creates an in-memory cache. dbPath may be empty to disable
// persistence.
func NewResultCache(ttl time.Duration, maxEntries int, dbPath string, logger *zap.Logger) (*ResultCache, error) {
	c := &ResultCache{
		entries:    make(map[string]*Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		logger:     logger,
	}

	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, fmt.Errorf("failed to open cache db: %w", err)
		}
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucketName)
			return err
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		c.db = db
		c.loadFromDisk()
	}

	return c, nil
}

// Key derives the storage key: normalize (lowercase, trim) then sha256, so
// key size is fixed and raw query text never becomes a key.
func Key(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached entry for query, or nil on a miss. An entry past
// its TTL behaves exactly like a miss.
func (c *ResultCache) Get(query string) *Entry {
	key := Key(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil
	}
	if time.Since(entry.Timestamp) > c.ttl {
		delete(c.entries, key)
		c.deleteFromDisk(key)
		c.misses++
		return nil
	}
	c.hits++
	return entry
}

// Set stores payload under the normalized query key, stamping it with the
// write time and a truncated copy of the original query.
func (c *ResultCache) Set(query string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	stored := query
	if len(stored) > maxStoredQueryLen {
		stored = stored[:maxStoredQueryLen]
	}
	entry := &Entry{
		Query:     stored,
		Timestamp: time.Now(),
		Payload:   raw,
	}
	key := Key(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = entry
	c.writeToDisk(key, entry)
	return nil
}

// Clear drops every entry.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
	if c.db != nil {
		err := c.db.Update(func(tx *bolt.Tx) error {
			if err := tx.DeleteBucket(bucketName); err != nil {
				return err
			}
			_, err := tx.CreateBucket(bucketName)
			return err
		})
		if err != nil && c.logger != nil {
			c.logger.Error("failed to clear cache db", zap.Error(err))
		}
	}
}

// Stats reports current counters.
func (c *ResultCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Entries:    len(c.entries),
		MaxEntries: c.maxEntries,
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
	}
}

// Close releases the underlying bolt database, if any.
func (c *ResultCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// evictOldest removes the entry with the earliest write time. Callers hold
// the write lock.
func (c *ResultCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.Timestamp.Before(oldest) {
			oldestKey = key
			oldest = entry.Timestamp
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.deleteFromDisk(oldestKey)
		c.evictions++
	}
}

func (c *ResultCache) loadFromDisk() {
	loaded := 0
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil // skip corrupt entries
			}
			if time.Since(entry.Timestamp) <= c.ttl {
				c.entries[string(k)] = &entry
				loaded++
			}
			return nil
		})
	})
	if err != nil && c.logger != nil {
		c.logger.Error("failed to load cache from disk", zap.Error(err))
	}
	if loaded > 0 && c.logger != nil {
		c.logger.Info("cache loaded from disk", zap.Int("entries", loaded))
	}
}

func (c *ResultCache) writeToDisk(key string, entry *Entry) {
	if c.db == nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), raw)
	})
	if err != nil && c.logger != nil {
		c.logger.Error("failed to persist cache entry", zap.Error(err))
	}
}

func (c *ResultCache) deleteFromDisk(key string) {
	if c.db == nil {
		return
	}
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	if err != nil && c.logger != nil {
		c.logger.Error("failed to delete cache entry", zap.Error(err))
	}
}
