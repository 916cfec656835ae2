// File: fake/registry.go
// Package fake
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"sync"

	"github.com/momentics/wsbridge/api"
)

// Registry is a recording api.Registry for tests.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string][]api.Session
	registerErr error
}

var _ api.Registry = (*Registry)(nil)

// NewRegistry creates an empty fake registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string][]api.Session)}
}

// SetRegisterError makes Register fail.
func (r *Registry) SetRegisterError(err error) {
	r.mu.Lock()
	r.registerErr = err
	r.mu.Unlock()
}

// Register implements api.Registry.
func (r *Registry) Register(variant string, s api.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registerErr != nil {
		return r.registerErr
	}
	r.sessions[variant] = append(r.sessions[variant], s)
	return nil
}

// Unregister implements api.Registry.
func (r *Registry) Unregister(variant string, s api.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.sessions[variant][:0]
	for _, x := range r.sessions[variant] {
		if x.ID() != s.ID() {
			kept = append(kept, x)
		}
	}
	r.sessions[variant] = kept
}

// Sessions implements api.Registry.
func (r *Registry) Sessions(variant string) []api.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.Session(nil), r.sessions[variant]...)
}

// Len implements api.Registry.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, set := range r.sessions {
		n += len(set)
	}
	return n
}
