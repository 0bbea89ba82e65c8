package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/jobscout/models"
)

// entry holds a cached posting with its creation timestamp.
type entry struct {
	job       *models.JobPosting
	createdAt time.Time
}

// Cache remembers recently scraped postings by URL so a repeated upload
// within the TTL does not start the browser again.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// New creates a Cache holding at most maxEntries postings for ttl each.
// A ttl of zero disables caching. A background goroutine evicts expired
// entries every ttl until Close is called.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	if ttl > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Key generates a cache key from a job URL. Trailing slashes and letter
// case of the URL are ignored.
func Key(url string) string {
	normalized := strings.TrimRight(strings.ToLower(strings.TrimSpace(url)), "/")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached posting for key if it is younger than the TTL.
func (c *Cache) Get(key string) (*models.JobPosting, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.createdAt) > c.ttl {
		return nil, false
	}
	return e.job, true
}

// Set stores a posting. If the cache is at capacity, a random entry is
// evicted to make room.
func (c *Cache) Set(key string, job *models.JobPosting) {
	if c.ttl <= 0 || c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration order is random in Go.
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{job: job, createdAt: c.now()}
}

// Invalidate drops every entry holding the posting with the given id.
func (c *Cache) Invalidate(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.job.ID == jobID {
			delete(c.store, k)
		}
	}
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) evictExpired() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}
