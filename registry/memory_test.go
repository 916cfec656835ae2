// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"gotest.tools/assert"

	"github.com/momentics/wsbridge/api"
)

// stubSession carries only an identifier; the registry never touches
// anything else.
type stubSession struct {
	id string
}

func (s *stubSession) ID() string                       { return s.id }
func (s *stubSession) Metadata() *api.HandshakeMetadata { return nil }
func (s *stubSession) UserProperties() map[string]any   { return nil }
func (s *stubSession) SetHandler(api.Handler)           {}
func (s *stubSession) SendText(string) error            { return nil }
func (s *stubSession) SendBinary([]byte) error          { return nil }
func (s *stubSession) SendMessage(any) error            { return nil }
func (s *stubSession) Close(api.CloseReason) error      { return nil }
func (s *stubSession) OnClose(api.CloseReason)          {}
func (s *stubSession) IsOpen() bool                     { return true }

func TestInMemory_RegisterAndLookup(t *testing.T) {
	reg := NewInMemory(8)

	a := &stubSession{id: "a"}
	b := &stubSession{id: "b"}
	assert.NilError(t, reg.Register("chat", a))
	assert.NilError(t, reg.Register("chat", b))
	assert.NilError(t, reg.Register("feed", a))

	assert.Equal(t, reg.Len(), 3)
	assert.Equal(t, len(reg.Sessions("chat")), 2)
	assert.Equal(t, len(reg.Sessions("feed")), 1)
	assert.Equal(t, len(reg.Sessions("absent")), 0)
}

func TestInMemory_UnregisterIsTolerant(t *testing.T) {
	reg := NewInMemory(8)
	a := &stubSession{id: "a"}

	assert.NilError(t, reg.Register("chat", a))
	reg.Unregister("chat", a)
	assert.Equal(t, reg.Len(), 0)

	// Unknown session and unknown variant are both no-ops.
	reg.Unregister("chat", a)
	reg.Unregister("absent", a)
	assert.Equal(t, reg.Len(), 0)
}

func TestInMemory_ReRegisterSameIDReplaces(t *testing.T) {
	reg := NewInMemory(8)
	a := &stubSession{id: "a"}

	assert.NilError(t, reg.Register("chat", a))
	assert.NilError(t, reg.Register("chat", a))
	assert.Equal(t, reg.Len(), 1)
}

func TestInMemory_ClosedRejectsRegistration(t *testing.T) {
	reg := NewInMemory(8)
	reg.Close()

	err := reg.Register("chat", &stubSession{id: "a"})
	assert.Assert(t, errors.Is(err, api.ErrRegistryClosed))
}

func TestInMemory_ShardCountRoundsUp(t *testing.T) {
	assert.Equal(t, nextPowerOfTwo(1), uint32(1))
	assert.Equal(t, nextPowerOfTwo(3), uint32(4))
	assert.Equal(t, nextPowerOfTwo(16), uint32(16))
	assert.Equal(t, nextPowerOfTwo(17), uint32(32))
}

func TestInMemory_ConcurrentRegistration(t *testing.T) {
	reg := NewInMemory(16)

	const workers = 8
	const perWorker = 100
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			variant := fmt.Sprintf("variant-%d", w%4)
			for i := 0; i < perWorker; i++ {
				s := &stubSession{id: fmt.Sprintf("%d-%d", w, i)}
				if err := reg.Register(variant, s); err != nil {
					t.Error(err)
					return
				}
				if i%2 == 0 {
					reg.Unregister(variant, s)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, reg.Len(), workers*perWorker/2)
}
