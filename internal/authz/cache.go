// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package authz

import "sync"

// decisionCache memoizes enforcement results. The role set is small and fixed,
// so entries never expire; any policy change clears the cache.
type decisionCache struct {
	mu    sync.RWMutex
	items map[decisionKey]bool
}

type decisionKey struct {
	subject, object, action string
}

func newDecisionCache() *decisionCache {
	return &decisionCache{items: make(map[decisionKey]bool)}
}

func (c *decisionCache) get(subject, object, action string) (allowed, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	allowed, ok = c.items[decisionKey{subject, object, action}]
	return allowed, ok
}

func (c *decisionCache) set(subject, object, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[decisionKey{subject, object, action}] = allowed
}

func (c *decisionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[decisionKey]bool)
}

func (c *decisionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
