// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

// holder_test.go: Scoped context swap: restoration on every exit path.
package appctx

import (
	"errors"
	"testing"
)

func TestHolder_SwapAndRestore(t *testing.T) {
	base := NewContext()
	base.Set("scope", "dispatch", false)
	app := NewContext()
	app.Set("scope", "application", false)

	h := NewHolder(base)

	err := h.With(app, func() error {
		if cur := h.Current(); cur != app {
			t.Error("application context not active inside With")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cur := h.Current(); cur != base {
		t.Error("prior context not restored after With")
	}
}

func TestHolder_RestoreOnError(t *testing.T) {
	base := NewContext()
	app := NewContext()
	h := NewHolder(base)

	want := errors.New("callback failed")
	err := h.With(app, func() error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if h.Current() != base {
		t.Error("prior context not restored after error")
	}
}

func TestHolder_RestoreOnPanic(t *testing.T) {
	base := NewContext()
	app := NewContext()
	h := NewHolder(base)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = h.With(app, func() error { panic("endpoint blew up") })
	}()

	if h.Current() != base {
		t.Error("prior context not restored after panic")
	}
}

func TestHolder_NestedSwaps(t *testing.T) {
	base := NewContext()
	inner := NewContext()
	outer := NewContext()
	h := NewHolder(base)

	_ = h.With(outer, func() error {
		_ = h.With(inner, func() error {
			if h.Current() != inner {
				t.Error("inner context not active")
			}
			return nil
		})
		if h.Current() != outer {
			t.Error("outer context not restored after nested With")
		}
		return nil
	})
	if h.Current() != base {
		t.Error("base context not restored")
	}
}

func TestContextStore_PropagationAndClone(t *testing.T) {
	ctx := NewContext()
	ctx.Set("keyA", 123, true)
	ctx.Set("keyB", 42, false)

	if v, ok := ctx.Get("keyA"); !ok || v.(int) != 123 {
		t.Error("failed to get propagated keyA")
	}
	if !ctx.IsPropagated("keyA") {
		t.Error("keyA should be propagated")
	}
	if ctx.IsPropagated("keyB") {
		t.Error("keyB should not be propagated")
	}

	clone := ctx.Clone()
	clone.Delete("keyA")
	if _, ok := ctx.Get("keyA"); !ok {
		t.Error("delete on clone must not affect original")
	}
	if v, ok := clone.Get("keyB"); !ok || v.(int) != 42 {
		t.Error("clone failed to copy keyB")
	}
	if got := len(ctx.Keys()); got != 2 {
		t.Errorf("expected 2 keys, got %d", got)
	}
}
