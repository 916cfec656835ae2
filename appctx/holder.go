// File: appctx/holder.go
// Package appctx provides scoped application-context swapping.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Holder tracks which execution context is active on a dispatch path and
// offers a scoped swap used around every application callback: acquire the
// application's context before invoking the callback, restore the prior
// context on every exit path, including panics. The context must never
// leak to unrelated work scheduled on the same dispatch goroutine.

package appctx

import (
	"sync"

	"github.com/momentics/wsbridge/api"
)

// Holder is the mutable slot carrying the currently active context for one
// dispatch domain (typically one server container).
type Holder struct {
	mu  sync.Mutex
	cur api.Context
}

// NewHolder creates a Holder whose initial active context is base.
// A nil base starts the holder empty.
func NewHolder(base api.Context) *Holder {
	return &Holder{cur: base}
}

// Current returns the context active right now.
func (h *Holder) Current() api.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cur
}

// With swaps ctx in as the active context, runs fn, and restores the
// previous context before returning. Restoration happens on every exit
// path: normal return, error return, and panic.
func (h *Holder) With(ctx api.Context, fn func() error) error {
	h.mu.Lock()
	prev := h.cur
	h.cur = ctx
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.cur = prev
		h.mu.Unlock()
	}()

	return fn()
}
