// File: appctx/store.go
// Package appctx
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Thread-safe, propagation-aware implementation of api.Context used as the
// application execution context.

package appctx

import (
	"sync"

	"github.com/momentics/wsbridge/api"
)

type entry struct {
	val        any
	propagated bool
}

// contextStore is a thread-safe, cloneable implementation of api.Context.
type contextStore struct {
	mu    sync.RWMutex
	store map[string]entry
}

// Ensure compliance with api.Context interface.
var _ api.Context = (*contextStore)(nil)

// NewContext creates an empty application context.
func NewContext() api.Context {
	return &contextStore{store: make(map[string]entry)}
}

// Set assigns a value with optional propagation.
func (c *contextStore) Set(key string, value any, propagated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = entry{val: value, propagated: propagated}
}

// Get fetches a value, returning (value, exists).
func (c *contextStore) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.store[key]
	if !ok {
		return nil, false
	}
	return e.val, true
}

// Delete removes a key.
func (c *contextStore) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}

// Clone creates a shallow copy satisfying api.Context.
func (c *contextStore) Clone() api.Context {
	c.mu.RLock()
	cp := make(map[string]entry, len(c.store))
	for k, v := range c.store {
		cp[k] = v
	}
	c.mu.RUnlock()
	return &contextStore{store: cp}
}

// IsPropagated checks if a key is marked for propagation.
func (c *contextStore) IsPropagated(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.store[key]
	return ok && e.propagated
}

// Keys returns all active keys in the context.
func (c *contextStore) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.store))
	for k := range c.store {
		keys = append(keys, k)
	}
	return keys
}
