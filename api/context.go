// File: api/context.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Application execution context: the identity scope (deployment settings,
// application-wide services) under which endpoint callbacks must run,
// distinct from whatever the dispatch goroutine was carrying.
// Not compatible with standard context.Context.

package api

// Context provides a lightweight key-value store with explicit propagation
// semantics, swapped in around every application callback.
type Context interface {
	// Set assigns a value for a key, optionally marking it as propagated.
	Set(key string, value any, propagated bool)
	// Get fetches a value, returning (value, exists).
	Get(key string) (any, bool)
	// Delete removes a value/key.
	Delete(key string)
	// Clone returns a shallow copy of the context suitable for child scopes.
	Clone() Context
	// IsPropagated checks if a key is marked for propagation.
	IsPropagated(key string) bool
	// Keys returns all present keys.
	Keys() []string
}
