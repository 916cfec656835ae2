// File: pool/bufpool.go
// Package pool provides bounded byte-buffer reuse for the read path.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A bounded channel keeps a fixed number of scratch buffers warm across
// connections. When the channel is empty a fresh buffer is allocated;
// when it is full returned buffers are dropped for the GC.

package pool

// BufferPool recycles fixed-size byte slices.
type BufferPool struct {
	size int
	ch   chan []byte
}

// NewBufferPool creates a pool of buffers of the given size, retaining at
// most capacity of them between uses.
func NewBufferPool(size, capacity int) *BufferPool {
	if size <= 0 {
		size = 32 * 1024
	}
	if capacity <= 0 {
		capacity = 1024
	}
	return &BufferPool{
		size: size,
		ch:   make(chan []byte, capacity),
	}
}

// Get returns a buffer of the pool's size.
func (p *BufferPool) Get() []byte {
	select {
	case buf := <-p.ch:
		return buf
	default:
		return make([]byte, p.size)
	}
}

// Put returns a buffer to the pool. Foreign-sized buffers are dropped.
func (p *BufferPool) Put(buf []byte) {
	if cap(buf) != p.size {
		return
	}
	select {
	case p.ch <- buf[:p.size]:
	default:
	}
}

// Size reports the buffer size this pool hands out.
func (p *BufferPool) Size() int { return p.size }
