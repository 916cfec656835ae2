// File: registry/memory.go
// Package registry provides connection registries keyed by endpoint variant.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sharded, thread-safe in-process registry. Sharding keeps variant-level
// contention away from unrelated endpoints under high accept rates.

package registry

import (
	"hash/fnv"
	"sync"

	"github.com/momentics/wsbridge/api"
)

// InMemory implements api.Registry with sharded maps.
type InMemory struct {
	shards []*registryShard
	mask   uint32
	closed bool
	mu     sync.RWMutex // guards closed
}

type registryShard struct {
	mu       sync.RWMutex
	variants map[string]map[string]api.Session // variant -> session id -> session
}

var _ api.Registry = (*InMemory)(nil)

// NewInMemory constructs a registry with shardCount shards.
func NewInMemory(shardCount int) *InMemory {
	if shardCount <= 0 {
		shardCount = 16
	}
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*registryShard, m)
	for i := range shards {
		shards[i] = &registryShard{variants: make(map[string]map[string]api.Session)}
	}
	return &InMemory{shards: shards, mask: m - 1}
}

// shard picks the shard for a given variant key.
func (r *InMemory) shard(variant string) *registryShard {
	return r.shards[fnv32(variant)&r.mask]
}

// Register adds a session under the variant key.
func (r *InMemory) Register(variant string, s api.Session) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return api.ErrRegistryClosed
	}
	r.mu.RUnlock()

	sh := r.shard(variant)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set, ok := sh.variants[variant]
	if !ok {
		set = make(map[string]api.Session)
		sh.variants[variant] = set
	}
	set[s.ID()] = s
	return nil
}

// Unregister removes a session; unknown sessions are ignored.
func (r *InMemory) Unregister(variant string, s api.Session) {
	sh := r.shard(variant)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if set, ok := sh.variants[variant]; ok {
		delete(set, s.ID())
		if len(set) == 0 {
			delete(sh.variants, variant)
		}
	}
}

// Sessions returns a snapshot of sessions registered under variant.
func (r *InMemory) Sessions(variant string) []api.Session {
	sh := r.shard(variant)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	set := sh.variants[variant]
	out := make([]api.Session, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

// Len returns the total number of registered sessions.
func (r *InMemory) Len() int {
	total := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		for _, set := range sh.variants {
			total += len(set)
		}
		sh.mu.RUnlock()
	}
	return total
}

// Close rejects further registrations.
func (r *InMemory) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// fnv32 hashes a string to uint32.
func fnv32(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
