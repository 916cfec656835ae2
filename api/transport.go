// File: api/transport.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Transport abstraction for an upgraded connection. The transport owns two
// independent asynchronous readiness signals: input has bytes, output can
// accept bytes. Listeners for the two may be invoked concurrently on
// different dispatch goroutines and must return promptly.

package api

// InputSource is a non-blocking byte source. Read returns ErrAgain when no
// bytes are currently buffered and io.EOF once the stream has ended.
type InputSource interface {
	Read(p []byte) (n int, err error)
}

// OutputSink is a non-blocking byte sink. Write returns ErrAgain when the
// sink is backpressured; queued data is retried on the next writability
// notification.
type OutputSink interface {
	Write(p []byte) (n int, err error)
}

// ReadListener receives input readiness notifications from the transport.
type ReadListener interface {
	// OnDataAvailable signals that the input source has bytes to process.
	OnDataAvailable()

	// OnAllDataRead signals that no more input will ever arrive. This
	// never happens for a connection-duration message protocol; reaching
	// it is an internal-consistency violation.
	OnAllDataRead()

	// OnError reports an asynchronous read-side transport failure.
	OnError(err error)
}

// WriteListener receives output readiness notifications from the transport.
type WriteListener interface {
	// OnWritePossible signals that the output sink can accept more bytes.
	OnWritePossible()

	// OnError reports an asynchronous write-side transport failure.
	OnError(err error)
}

// Transport supplies the byte source and sink obtained from a successful
// protocol-switch handshake and delivers readiness notifications to the
// registered listeners. Source and sink are acquired once; acquisition
// failure is fatal to the upgrade.
type Transport interface {
	InputSource() (InputSource, error)
	OutputSink() (OutputSink, error)
	SetReadListener(l ReadListener)
	SetWriteListener(l WriteListener)
	Close() error
}
