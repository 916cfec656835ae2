// File: fake/transport.go
// Package fake provides controllable implementations for testing.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The fake transport gives tests full control over both readiness signals:
// push bytes and fire readable, toggle sink writability and fire writable,
// inject acquisition and I/O failures.

package fake

import (
	"sync"

	"github.com/momentics/wsbridge/api"
)

// Transport is a fake implementation of api.Transport.
type Transport struct {
	Source *Source
	Sink   *Sink

	mu         sync.Mutex
	readL      api.ReadListener
	writeL     api.WriteListener
	srcErr     error
	sinkErr    error
	closeCount int
}

var _ api.Transport = (*Transport)(nil)

// NewTransport creates a fake transport with an empty source and a
// writable sink.
func NewTransport() *Transport {
	return &Transport{
		Source: &Source{},
		Sink:   &Sink{writable: true},
	}
}

// SetSourceError makes InputSource fail, simulating acquisition failure.
func (t *Transport) SetSourceError(err error) { t.srcErr = err }

// SetSinkError makes OutputSink fail.
func (t *Transport) SetSinkError(err error) { t.sinkErr = err }

// InputSource implements api.Transport.
func (t *Transport) InputSource() (api.InputSource, error) {
	if t.srcErr != nil {
		return nil, t.srcErr
	}
	return t.Source, nil
}

// OutputSink implements api.Transport.
func (t *Transport) OutputSink() (api.OutputSink, error) {
	if t.sinkErr != nil {
		return nil, t.sinkErr
	}
	return t.Sink, nil
}

// SetReadListener implements api.Transport.
func (t *Transport) SetReadListener(l api.ReadListener) {
	t.mu.Lock()
	t.readL = l
	t.mu.Unlock()
}

// SetWriteListener implements api.Transport. Unlike the production
// transport no initial writability notification fires; tests drive every
// notification explicitly.
func (t *Transport) SetWriteListener(l api.WriteListener) {
	t.mu.Lock()
	t.writeL = l
	t.mu.Unlock()
}

// Close implements api.Transport and counts invocations.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closeCount++
	t.mu.Unlock()
	return nil
}

// CloseCount reports how many times Close ran.
func (t *Transport) CloseCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCount
}

// ReadListener returns the registered read listener.
func (t *Transport) ReadListener() api.ReadListener {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readL
}

// WriteListener returns the registered write listener.
func (t *Transport) WriteListener() api.WriteListener {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeL
}

// FireReadable delivers an "input has data" notification synchronously.
func (t *Transport) FireReadable() {
	if l := t.ReadListener(); l != nil {
		l.OnDataAvailable()
	}
}

// FireAllDataRead delivers the "no more input" notification.
func (t *Transport) FireAllDataRead() {
	if l := t.ReadListener(); l != nil {
		l.OnAllDataRead()
	}
}

// FireReadError delivers an asynchronous read-side failure.
func (t *Transport) FireReadError(err error) {
	if l := t.ReadListener(); l != nil {
		l.OnError(err)
	}
}

// FireWritable delivers an "output can accept bytes" notification.
func (t *Transport) FireWritable() {
	if l := t.WriteListener(); l != nil {
		l.OnWritePossible()
	}
}

// FireWriteError delivers an asynchronous write-side failure.
func (t *Transport) FireWriteError(err error) {
	if l := t.WriteListener(); l != nil {
		l.OnError(err)
	}
}

// Source is a controllable api.InputSource.
type Source struct {
	mu  sync.Mutex
	buf []byte
	err error
}

var _ api.InputSource = (*Source)(nil)

// Push appends bytes for subsequent reads.
func (s *Source) Push(data []byte) {
	s.mu.Lock()
	s.buf = append(s.buf, data...)
	s.mu.Unlock()
}

// Fail sets the terminal condition returned once the buffer drains.
// Use io.EOF to simulate a truncated stream.
func (s *Source) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Read implements api.InputSource.
func (s *Source) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) > 0 {
		n := copy(p, s.buf)
		s.buf = s.buf[n:]
		return n, nil
	}
	if s.err != nil {
		return 0, s.err
	}
	return 0, api.ErrAgain
}

// Sink is a controllable api.OutputSink.
type Sink struct {
	mu       sync.Mutex
	written  []byte
	writable bool
	err      error
}

var _ api.OutputSink = (*Sink)(nil)

// SetWritable toggles backpressure. A non-writable sink reports
// api.ErrAgain without consuming bytes.
func (s *Sink) SetWritable(w bool) {
	s.mu.Lock()
	s.writable = w
	s.mu.Unlock()
}

// Fail makes every subsequent write return err.
func (s *Sink) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Write implements api.OutputSink.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if !s.writable {
		return 0, api.ErrAgain
	}
	s.written = append(s.written, p...)
	return len(p), nil
}

// Written returns everything successfully written.
func (s *Sink) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.written))
	copy(out, s.written)
	return out
}
