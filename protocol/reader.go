// File: protocol/reader.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FrameReader is the inbound half of the upgraded connection: it drains
// whatever bytes the non-blocking source currently holds, decodes every
// complete frame, and dispatches each one into the session. It never
// blocks the dispatch goroutine.

package protocol

import (
	"errors"
	"fmt"
	"io"

	"github.com/momentics/wsbridge/api"
)

// readChunkSize is the granularity of source drains.
const readChunkSize = 8192

// FrameSink consumes decoded frames. The session implements this.
type FrameSink interface {
	HandleFrame(fin bool, opcode byte, payload []byte) error
}

// FrameReader decodes frames from an input source and feeds a sink.
type FrameReader struct {
	src         api.InputSource
	sink        FrameSink
	buf         []byte // accumulated bytes not yet forming a complete frame
	eof         bool
	requireMask bool
}

// NewFrameReader binds a reader to its source and sink. Server-side
// readers enforce client frame masking.
func NewFrameReader(src api.InputSource, sink FrameSink) *FrameReader {
	return &FrameReader{src: src, sink: sink, requireMask: true}
}

// ProcessAvailable consumes all bytes the source currently has and
// dispatches every complete frame. Outcomes:
//   - *api.ProtocolError: framing violation, carries the close code
//   - api.ErrTruncatedStream: the stream ended without a close exchange
//   - any other error: unclassified I/O failure from the source or sink
//
// A return with no error means every buffered frame was dispatched and
// the reader is waiting for the next readiness notification.
func (r *FrameReader) ProcessAvailable() error {
	if err := r.fill(); err != nil {
		return err
	}

	for len(r.buf) > 0 {
		frame, consumed, err := DecodeFrameFromBytes(r.buf, r.requireMask)
		if err != nil {
			return err
		}
		if frame == nil {
			break // incomplete frame, wait for more bytes
		}
		r.buf = r.buf[consumed:]
		if err := r.sink.HandleFrame(frame.IsFinal, frame.Opcode, frame.Payload); err != nil {
			return err
		}
	}

	if r.eof {
		if len(r.buf) > 0 {
			return fmt.Errorf("%w: %d bytes of partial frame discarded", api.ErrTruncatedStream, len(r.buf))
		}
		return fmt.Errorf("%w: connection ended without close exchange", api.ErrTruncatedStream)
	}
	return nil
}

// fill drains the source until it reports ErrAgain or ends.
func (r *FrameReader) fill() error {
	if r.eof {
		return nil
	}
	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.src.Read(chunk)
		if n > 0 {
			r.buf = append(r.buf, chunk[:n]...)
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, api.ErrAgain):
			return nil
		case errors.Is(err, io.EOF):
			r.eof = true
			return nil
		default:
			return err
		}
	}
}

// Buffered returns the number of bytes awaiting a complete frame.
func (r *FrameReader) Buffered() int {
	return len(r.buf)
}
