// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

// Package cache memoizes API reads for a few seconds so that bursts of
// identical requests collapse into one network call.
//
// Entries expire lazily: an expired entry is removed when it is next read.
// There is no background sweep. Invalidation after a write is the caller's
// job, via Delete, DeletePrefix or Clear.
package cache

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/metrics"
)

// DefaultTTL is the lifetime of an entry when none is configured.
const DefaultTTL = 5 * time.Second

// Entry represents a cached item.
type Entry struct {
	Data     interface{}
	StoredAt time.Time
}

// Cache provides a thread-safe in-memory cache with a fixed TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	clk     clock.Clock
	stats   Stats
}

// Stats tracks cache performance.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

// New creates a cache whose entries live for ttl. A nil clock selects the
// system clock.
//
//	c := cache.New(5*time.Second, nil)
//	c.Set(cache.GenerateKey("/rooms", q), page)
func New(ttl time.Duration, clk clock.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		clk:     clk,
	}
}

// Get returns the value stored under key if it is younger than the TTL.
// The returned value is the same one passed to Set. An expired entry is
// deleted and reported as a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if c.clk.Now().Sub(entry.StoredAt) >= c.ttl {
		c.mu.Lock()
		// Only delete if no newer Set replaced it meanwhile.
		if current, ok := c.entries[key]; ok && current.StoredAt.Equal(entry.StoredAt) {
			delete(c.entries, key)
			c.stats.Evictions++
			c.stats.TotalKeys = int64(len(c.entries))
		}
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores value under key, replacing any previous entry.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Data: value, StoredAt: c.clk.Now()}
	c.stats.TotalKeys = int64(len(c.entries))
}

// Delete removes the given keys. Missing keys are ignored.
func (c *Cache) Delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			c.evictLocked(1)
		}
	}
	c.stats.TotalKeys = int64(len(c.entries))
}

// DeletePrefix removes every key starting with one of the prefixes and
// returns how many entries were removed.
//
//	c.DeletePrefix("/rooms", "/dashboard")
func (c *Cache) DeletePrefix(prefixes ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				delete(c.entries, key)
				removed++
				break
			}
		}
	}
	c.evictLocked(removed)
	c.stats.TotalKeys = int64(len(c.entries))
	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(len(c.entries))
	c.entries = make(map[string]Entry)
	c.stats.TotalKeys = 0
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a copy of the current statistics.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *Cache) evictLocked(n int) {
	if n == 0 {
		return
	}
	c.stats.Evictions += int64(n)
	metrics.ResponseCacheInvalidations.Add(float64(n))
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	metrics.ResponseCacheHits.Inc()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
	metrics.ResponseCacheMisses.Inc()
}

// GenerateKey builds a deterministic key from an endpoint path and its query
// parameters. Parameters are sorted by name and empty values are dropped, so
// the same logical request always yields the same key.
//
//	GenerateKey("/alerts", url.Values{"status": {"ACTIVE"}, "limit": {"100"}})
//	// "/alerts?limit=100&status=ACTIVE"
func GenerateKey(endpoint string, params url.Values) string {
	clean := url.Values{}
	for k, vals := range params {
		for _, v := range vals {
			if v != "" {
				clean.Add(k, v)
			}
		}
	}
	if len(clean) == 0 {
		return endpoint
	}
	return endpoint + "?" + clean.Encode()
}
