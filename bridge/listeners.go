// File: bridge/listeners.go
// Package bridge
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Transport notification sinks. Both hold a non-owning back-reference to
// the bridge purely to forward triaged events; the bridge owns their
// lifetime. The two listeners may fire concurrently on different dispatch
// goroutines.

package bridge

import (
	"errors"

	"github.com/momentics/wsbridge/api"
	"github.com/momentics/wsbridge/protocol"
)

// readinessListener reacts to "input has data" notifications and triages
// processing outcomes into the bridge's failure paths.
type readinessListener struct {
	bridge *Bridge
	reader *protocol.FrameReader
}

var _ api.ReadListener = (*readinessListener)(nil)

// OnDataAvailable processes buffered input. A decode violation already
// carries the precise close code, so the session is closed unilaterally
// with it. A truncated stream closes with abnormal closure. Anything else
// is unclassified and goes to the application's OnError.
func (l *readinessListener) OnDataAvailable() {
	err := l.reader.ProcessAvailable()
	if err == nil {
		return
	}
	var perr *api.ProtocolError
	switch {
	case errors.As(err, &perr):
		l.bridge.close(perr.CloseReason())
	case errors.Is(err, api.ErrTruncatedStream):
		l.bridge.close(api.NewCloseReason(api.CloseAbnormalClosure, err.Error()))
	default:
		l.bridge.OnError(err)
	}
}

// OnAllDataRead is unreachable: a connection-duration message protocol
// never signals end of input while the connection is open.
func (l *readinessListener) OnAllDataRead() {
	panic("wsbridge: input exhausted on a connection-duration protocol")
}

// OnError forwards asynchronous read-side transport failures.
func (l *readinessListener) OnError(err error) {
	l.bridge.OnError(err)
}

// writabilityListener reacts to "output can accept bytes" notifications.
type writabilityListener struct {
	bridge *Bridge
	writer *protocol.FrameWriter
}

var _ api.WriteListener = (*writabilityListener)(nil)

// OnWritePossible resumes draining queued outbound frames. Draining with
// an empty queue is a no-op.
func (l *writabilityListener) OnWritePossible() {
	if err := l.writer.Drain(); err != nil {
		l.bridge.OnError(err)
	}
}

// OnError forwards asynchronous write-side transport failures.
func (l *writabilityListener) OnError(err error) {
	l.bridge.OnError(err)
}
