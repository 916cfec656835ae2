// File: api/registry.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Registry tracks live sessions per endpoint variant. It is an injected
// collaborator so containers can swap the in-memory implementation for a
// shared one and tests can supply a fake. A session becomes discoverable
// here only after its endpoint's OnOpen has returned.
type Registry interface {
	// Register adds a session under the endpoint variant key.
	Register(variant string, s Session) error

	// Unregister removes a session; unknown sessions are ignored.
	Unregister(variant string, s Session)

	// Sessions returns a snapshot of the sessions registered under variant.
	Sessions(variant string) []Session

	// Len returns the total number of registered sessions.
	Len() int
}
