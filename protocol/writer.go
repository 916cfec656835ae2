// File: protocol/writer.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FrameWriter is the outbound half of the upgraded connection. Encoded
// frames go through a mutex-guarded FIFO so writes stay serialized between
// writability notifications arriving on dispatch goroutines and sends
// issued from application goroutines. When the sink reports backpressure
// the remainder stays queued until the next writability notification.

package protocol

import (
	"errors"
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/wsbridge/api"
)

// FrameWriter queues and flushes outbound frames against a non-blocking sink.
type FrameWriter struct {
	mu      sync.Mutex
	sink    api.OutputSink
	queue   *queue.Queue // of []byte, fully encoded frames
	pending []byte       // partially written frame, nil when none
	closed  bool
}

// NewFrameWriter builds a writer bound to sink.
func NewFrameWriter(sink api.OutputSink) *FrameWriter {
	return &FrameWriter{sink: sink, queue: queue.New()}
}

// QueueFrame encodes a frame, appends it to the outbound queue, and
// opportunistically drains.
func (w *FrameWriter) QueueFrame(fin bool, opcode byte, payload []byte) error {
	data := EncodeFrame(fin, opcode, payload)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return api.ErrSessionClosed
	}
	w.queue.Add(data)
	return w.drainLocked()
}

// Drain flushes queued frames until the queue empties or the sink reports
// backpressure. Draining an empty queue is a no-op.
func (w *FrameWriter) Drain() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.drainLocked()
}

func (w *FrameWriter) drainLocked() error {
	for {
		if w.pending == nil {
			if w.queue.Length() == 0 {
				return nil
			}
			w.pending = w.queue.Remove().([]byte)
		}
		n, err := w.sink.Write(w.pending)
		if n > 0 {
			w.pending = w.pending[n:]
		}
		if len(w.pending) == 0 {
			w.pending = nil
		}
		if err != nil {
			if errors.Is(err, api.ErrAgain) {
				return nil // wait for the next writability notification
			}
			return err
		}
	}
}

// QueuedFrames reports how many complete frames are still waiting,
// the partially written one included.
func (w *FrameWriter) QueuedFrames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.queue.Length()
	if w.pending != nil {
		n++
	}
	return n
}

// Close discards queued frames and rejects further sends.
func (w *FrameWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.pending = nil
	w.queue = queue.New()
}
