// File: metrics/metrics.go
// Package metrics collects container-level counters.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Counters register dynamically under string keys; a snapshot copies the
// current values together with the last update time.

package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Registry holds named monotonic counters.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*int64
	updated  time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*int64)}
}

// Inc increments the named counter, registering it on first use.
func (r *Registry) Inc(key string) {
	r.mu.RLock()
	c, ok := r.counters[key]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if c, ok = r.counters[key]; !ok {
			c = new(int64)
			r.counters[key] = c
		}
		r.updated = time.Now()
		r.mu.Unlock()
	}
	atomic.AddInt64(c, 1)
}

// Get returns the current value of a counter, zero if unregistered.
func (r *Registry) Get(key string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.counters[key]; ok {
		return atomic.LoadInt64(c)
	}
	return 0
}

// Snapshot returns a copy of all counter values.
func (r *Registry) Snapshot() map[string]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int64, len(r.counters))
	for k, c := range r.counters {
		out[k] = atomic.LoadInt64(c)
	}
	return out
}

// Updated reports when a counter was last registered.
func (r *Registry) Updated() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updated
}
