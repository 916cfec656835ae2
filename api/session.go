// File: api/session.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Session contract and the immutable handshake metadata snapshot captured
// during the protocol upgrade.

package api

import "net/url"

// HandshakeMetadata is the immutable record of the upgrade request,
// captured before session construction.
type HandshakeMetadata struct {
	URI            *url.URL
	QueryString    string
	ParameterMap   map[string][]string
	Principal      string
	Subprotocol    string
	PathParameters map[string]string
	Secure         bool
}

// Session represents protocol-level connection state for one upgraded
// connection. Exactly one terminal transition is permitted; all close
// entry points are idempotent.
type Session interface {
	// ID returns the unique session identifier.
	ID() string

	// Metadata returns the handshake snapshot this session was built from.
	Metadata() *HandshakeMetadata

	// UserProperties returns the mutable per-session property bag seeded
	// from the endpoint configuration.
	UserProperties() map[string]any

	// SetHandler installs the inbound message consumer.
	SetHandler(h Handler)

	// SendText queues a text message.
	SendText(msg string) error

	// SendBinary queues a binary message.
	SendBinary(data []byte) error

	// SendMessage encodes v with the configured encoders and queues it.
	SendMessage(v any) error

	// Close performs an application-initiated close with the given reason.
	Close(reason CloseReason) error

	// OnClose performs the unilateral terminal transition: best-effort
	// close frame, endpoint OnClose callback, registry removal, transport
	// teardown. Safe under concurrent invocation; only the first call has
	// an observable effect.
	OnClose(reason CloseReason)

	// IsOpen reports whether the session is still in the open state.
	IsOpen() bool
}
