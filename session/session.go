// File: session/session.go
// Package session implements protocol-level connection state.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One Session exists per upgraded connection. It is the target of decoded
// inbound frames, the owner of the outbound write path, and the holder of
// the terminal open -> closing -> closed transition. The transition happens
// at most once regardless of how many collaborators race to trigger it.

package session

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/momentics/wsbridge/api"
	"github.com/momentics/wsbridge/appctx"
	"github.com/momentics/wsbridge/protocol"
)

// Session lifecycle states.
const (
	stateOpen int32 = iota
	stateClosing
	stateClosed
)

// Session is the server-side implementation of api.Session.
type Session struct {
	id        string
	meta      *api.HandshakeMetadata
	props     map[string]any
	encoders  []api.Encoder
	writer    *protocol.FrameWriter
	endpoint  api.Endpoint
	variant   string
	registry  api.Registry
	transport api.Transport
	holder    *appctx.Holder
	appCtx    api.Context

	state int32

	mu         sync.Mutex // guards handler and fragment reassembly state
	handler    api.Handler
	fragOpcode byte
	fragBuf    []byte
	fragActive bool
}

var _ api.Session = (*Session)(nil)
var _ protocol.FrameSink = (*Session)(nil)

// New builds a session from the handshake snapshot and the endpoint's
// deployment configuration, with writer as the outbound target. An invalid
// configuration (nil endpoint, nil metadata, nil encoder entry) fails with
// api.ErrConfiguration.
func New(ep api.Endpoint, cfg *api.EndpointConfig, meta *api.HandshakeMetadata,
	writer *protocol.FrameWriter, tr api.Transport, reg api.Registry,
	holder *appctx.Holder, appCtx api.Context) (*Session, error) {

	if ep == nil {
		return nil, fmt.Errorf("%w: nil endpoint", api.ErrConfiguration)
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: nil handshake metadata", api.ErrConfiguration)
	}
	if cfg == nil {
		cfg = &api.EndpointConfig{}
	}
	for i, enc := range cfg.Encoders {
		if enc == nil {
			return nil, fmt.Errorf("%w: encoder %d is nil", api.ErrConfiguration, i)
		}
	}

	props := make(map[string]any, len(cfg.UserProperties))
	for k, v := range cfg.UserProperties {
		props[k] = v
	}

	return &Session{
		id:        uuid.NewString(),
		meta:      meta,
		props:     props,
		encoders:  cfg.Encoders,
		writer:    writer,
		endpoint:  ep,
		variant:   cfg.Name,
		registry:  reg,
		transport: tr,
		holder:    holder,
		appCtx:    appCtx,
	}, nil
}

// ID returns the unique session identifier.
func (s *Session) ID() string { return s.id }

// Metadata returns the immutable handshake snapshot.
func (s *Session) Metadata() *api.HandshakeMetadata { return s.meta }

// UserProperties returns the per-session property bag.
func (s *Session) UserProperties() map[string]any { return s.props }

// Variant returns the endpoint variant key this session registers under.
func (s *Session) Variant() string { return s.variant }

// IsOpen reports whether the terminal transition has not started yet.
func (s *Session) IsOpen() bool {
	return atomic.LoadInt32(&s.state) == stateOpen
}

// SetHandler installs the inbound message consumer.
func (s *Session) SetHandler(h api.Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// SendText queues a text message for transmission.
func (s *Session) SendText(msg string) error {
	if !s.IsOpen() {
		return api.ErrSessionClosed
	}
	return s.writer.QueueFrame(true, protocol.OpcodeText, []byte(msg))
}

// SendBinary queues a binary message for transmission.
func (s *Session) SendBinary(data []byte) error {
	if !s.IsOpen() {
		return api.ErrSessionClosed
	}
	return s.writer.QueueFrame(true, protocol.OpcodeBinary, data)
}

// SendMessage encodes v with the first matching configured encoder.
func (s *Session) SendMessage(v any) error {
	if !s.IsOpen() {
		return api.ErrSessionClosed
	}
	for _, enc := range s.encoders {
		if !enc.Handles(v) {
			continue
		}
		payload, binary, err := enc.Encode(v)
		if err != nil {
			return err
		}
		opcode := byte(protocol.OpcodeText)
		if binary {
			opcode = protocol.OpcodeBinary
		}
		return s.writer.QueueFrame(true, opcode, payload)
	}
	return fmt.Errorf("no encoder configured for %T", v)
}

// Close performs an application-initiated close.
func (s *Session) Close(reason api.CloseReason) error {
	s.OnClose(reason)
	return nil
}

// OnClose performs the terminal transition. The connection state is no
// longer trusted when this runs: attempt to send a close frame, then tear
// down immediately instead of waiting for a peer close frame that may
// never arrive. Concurrent and repeated calls close the session exactly
// once.
func (s *Session) OnClose(reason api.CloseReason) {
	if !atomic.CompareAndSwapInt32(&s.state, stateOpen, stateClosing) {
		return
	}

	// Best-effort close frame; the peer may already be gone.
	_ = s.writer.QueueFrame(true, protocol.OpcodeClose, protocol.EncodeCloseReason(reason))
	s.writer.Close()

	_ = s.holder.With(s.appCtx, func() error {
		s.endpoint.OnClose(s, reason)
		return nil
	})

	if s.registry != nil {
		s.registry.Unregister(s.variant, s)
	}
	if s.transport != nil {
		_ = s.transport.Close()
	}

	atomic.StoreInt32(&s.state, stateClosed)
	log.Printf("[session] %s closed (%s)", s.id, reason)
}

// HandleFrame consumes one decoded frame. Control frames are handled in
// place; data frames are reassembled and delivered to the installed
// handler. Frames arriving after the terminal transition are dropped.
func (s *Session) HandleFrame(fin bool, opcode byte, payload []byte) error {
	if !s.IsOpen() {
		return nil
	}

	switch opcode {
	case protocol.OpcodePing:
		return s.writer.QueueFrame(true, protocol.OpcodePong, payload)

	case protocol.OpcodePong:
		return nil

	case protocol.OpcodeClose:
		s.OnClose(protocol.DecodeCloseReason(payload))
		return nil

	case protocol.OpcodeContinuation:
		s.mu.Lock()
		if !s.fragActive {
			s.mu.Unlock()
			return api.NewProtocolError(api.CloseProtocolError, "continuation without initial fragment")
		}
		if int64(len(s.fragBuf))+int64(len(payload)) > protocol.MaxFramePayload {
			s.fragActive = false
			s.fragBuf = nil
			s.mu.Unlock()
			return api.NewProtocolError(api.CloseMessageTooBig, "reassembled message exceeds maximum size")
		}
		s.fragBuf = append(s.fragBuf, payload...)
		if !fin {
			s.mu.Unlock()
			return nil
		}
		data, dataOpcode := s.fragBuf, s.fragOpcode
		s.fragActive = false
		s.fragBuf = nil
		s.mu.Unlock()
		return s.deliver(dataOpcode, data)

	case protocol.OpcodeText, protocol.OpcodeBinary:
		s.mu.Lock()
		if s.fragActive {
			s.mu.Unlock()
			return api.NewProtocolError(api.CloseProtocolError, "interleaved message fragments")
		}
		if !fin {
			s.fragActive = true
			s.fragOpcode = opcode
			s.fragBuf = append([]byte(nil), payload...)
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()
		return s.deliver(opcode, payload)
	}

	return api.NewProtocolError(api.CloseProtocolError, "unknown opcode")
}

// deliver hands a complete message to the application handler.
func (s *Session) deliver(opcode byte, payload []byte) error {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h == nil {
		return nil
	}
	if opcode == protocol.OpcodeText {
		return h.Handle(string(payload))
	}
	return h.Handle(payload)
}
