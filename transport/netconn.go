// File: transport/netconn.go
// Package transport adapts net.Conn to the notification-driven api.Transport.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NetConn pumps connection reads into a buffered non-blocking source on a
// dedicated goroutine and fires OnDataAvailable after each arrival.
// Terminal read conditions surface through the source itself on the next
// drain; the transport never invokes OnAllDataRead, because end of input
// is not a defined event for an open full-duplex connection.

package transport

import (
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/momentics/wsbridge/api"
	"github.com/momentics/wsbridge/pool"
)

// readBufSize is the size of the read pump's scratch buffer.
const readBufSize = 32 * 1024

// readBuffers keeps pump scratch buffers warm across connections.
var readBuffers = pool.NewBufferPool(readBufSize, 1024)

// NetConn implements api.Transport over a net.Conn obtained from a
// completed upgrade handshake.
type NetConn struct {
	conn net.Conn
	src  *connSource
	sink *connSink

	mu     sync.Mutex
	readL  api.ReadListener
	writeL api.WriteListener

	closed int32
}

var _ api.Transport = (*NetConn)(nil)

// NewNetConn wraps an upgraded connection. Socket tuning is applied where
// the platform supports it.
func NewNetConn(conn net.Conn) *NetConn {
	tuneConn(conn)
	return &NetConn{
		conn: conn,
		src:  &connSource{},
		sink: &connSink{conn: conn},
	}
}

// InputSource returns the non-blocking input source.
func (t *NetConn) InputSource() (api.InputSource, error) {
	if atomic.LoadInt32(&t.closed) == 1 {
		return nil, net.ErrClosed
	}
	return t.src, nil
}

// OutputSink returns the serialized output sink.
func (t *NetConn) OutputSink() (api.OutputSink, error) {
	if atomic.LoadInt32(&t.closed) == 1 {
		return nil, net.ErrClosed
	}
	return t.sink, nil
}

// SetReadListener registers the read-side listener and starts the read
// pump. Registering twice replaces the listener but keeps a single pump.
func (t *NetConn) SetReadListener(l api.ReadListener) {
	t.mu.Lock()
	prev := t.readL
	t.readL = l
	t.mu.Unlock()
	if prev == nil {
		go t.readPump()
	}
}

// SetWriteListener registers the write-side listener and fires an initial
// writability notification so queued frames start draining.
func (t *NetConn) SetWriteListener(l api.WriteListener) {
	t.mu.Lock()
	t.writeL = l
	t.mu.Unlock()
	go l.OnWritePossible()
}

// Close tears the connection down. Idempotent.
func (t *NetConn) Close() error {
	if !atomic.CompareAndSwapInt32(&t.closed, 0, 1) {
		return nil
	}
	return t.conn.Close()
}

// readPump moves bytes from the connection into the source and notifies
// the listener. On a terminal read condition it records the condition in
// the source and notifies one final time so the frame layer observes it.
func (t *NetConn) readPump() {
	buf := readBuffers.Get()
	defer readBuffers.Put(buf)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			t.src.push(buf[:n])
			t.notifyReadable()
		}
		if err != nil {
			if atomic.LoadInt32(&t.closed) == 1 {
				return // local teardown, listeners already know
			}
			t.src.fail(err)
			t.notifyReadable()
			return
		}
	}
}

func (t *NetConn) notifyReadable() {
	t.mu.Lock()
	l := t.readL
	t.mu.Unlock()
	if l != nil {
		l.OnDataAvailable()
	}
}

// connSource buffers pumped bytes and reports api.ErrAgain when empty.
type connSource struct {
	mu  sync.Mutex
	buf []byte
	err error // terminal condition, io.EOF or a transport failure
}

// Read implements api.InputSource.
func (s *connSource) Read(p []byte) (int, error) {
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

func (s *connSource) push(data []byte) {
	s.mu.Lock()
	s.buf = append(s.buf, data...)
	s.mu.Unlock()
}

func (s *connSource) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		s.err = err
	}
	s.mu.Unlock()
}

// connSink serializes writes to the connection. net.Conn writes complete
// or fail; backpressure shows up as blocking inside Write, so this sink
// never reports api.ErrAgain.
type connSink struct {
	mu   sync.Mutex
	conn net.Conn
}

// Write implements api.OutputSink.
func (s *connSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Write(p)
}
