// File: api/endpoint.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Application-facing endpoint contract. Variants are application-defined
// implementations selected at registration time; the bridge only ever
// references an endpoint, it never owns one.

package api

// Endpoint is the application-supplied lifecycle handler for one upgraded
// connection class.
type Endpoint interface {
	// OnOpen runs once after the session is fully constructed and before
	// the session becomes discoverable through the registry. A non-nil
	// error aborts initialization.
	OnOpen(s Session, cfg *EndpointConfig) error

	// OnError receives failures the bridge could not classify. Closing the
	// connection in response is the application's decision.
	OnError(s Session, err error)

	// OnClose runs once when the session completes its terminal transition.
	OnClose(s Session, reason CloseReason)
}

// Handler consumes decoded inbound messages for one session. Applications
// install one from inside OnOpen via Session.SetHandler.
type Handler interface {
	Handle(data any) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(data any) error

// Handle implements Handler.
func (f HandlerFunc) Handle(data any) error { return f(data) }

// Encoder turns an application object into a single outbound message.
type Encoder interface {
	// Handles reports whether this encoder accepts v.
	Handles(v any) bool

	// Encode returns the encoded payload and whether it is binary.
	Encode(v any) (payload []byte, binary bool, err error)
}

// EndpointConfig carries per-endpoint deployment settings. The Name keys
// the connection registry; Encoders back Session.SendMessage.
type EndpointConfig struct {
	Name           string
	Subprotocols   []string
	Encoders       []Encoder
	UserProperties map[string]any
}
