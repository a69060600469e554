package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Fingerprint derives the cache key for one validation request. Payload and
// existing data are serialised to canonical JSON (map keys sort on encode)
// and hashed, so identical content always maps to the same key.
func Fingerprint(category, operation string, payload, existing map[string]any) string {
	h := sha256.New()
	if b, err := json.Marshal(payload); err == nil {
		h.Write(b)
	}
	h.Write([]byte{0})
	if b, err := json.Marshal(existing); err == nil {
		h.Write(b)
	}
	return category + "|" + operation + "|" + hex.EncodeToString(h.Sum(nil))
}

// resultCache is a bounded LRU with per-entry TTL. The expirable LRU runs
// its own periodic expiry sweep, independent of reads.
type resultCache struct {
	lru *expirable.LRU[string, *Result]
}

func newResultCache(size int, ttl time.Duration) *resultCache {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &resultCache{lru: expirable.NewLRU[string, *Result](size, nil, ttl)}
}

func (c *resultCache) get(key string) (*Result, bool) {
	return c.lru.Get(key)
}

func (c *resultCache) add(key string, v *Result) {
	c.lru.Add(key, v)
}

// invalidateCategory drops every cached result for a category. Conservative:
// any registry mutation for the category clears all of its entries.
func (c *resultCache) invalidateCategory(category string) {
	prefix := category + "|"
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}

func (c *resultCache) purge() {
	c.lru.Purge()
}
