// File: bridge/bridge.go
// Package bridge drives a protocol session over an upgraded transport.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The Bridge is the connection upgrade and lifecycle coordinator: it takes
// the transport's two independent readiness signals and turns them into
// frame processing and drain calls, runs every application callback under
// the application's execution context, and triages failures into the right
// closure semantics. One Bridge owns exactly one session, one frame
// reader, and one frame writer for the lifetime of one upgraded
// connection.

package bridge

import (
	"fmt"

	"github.com/momentics/wsbridge/api"
	"github.com/momentics/wsbridge/appctx"
	"github.com/momentics/wsbridge/protocol"
	"github.com/momentics/wsbridge/session"
)

// Bridge coordinates one upgraded connection.
type Bridge struct {
	endpoint api.Endpoint
	cfg      *api.EndpointConfig
	meta     *api.HandshakeMetadata
	registry api.Registry
	holder   *appctx.Holder
	appCtx   api.Context

	sess   *session.Session
	reader *protocol.FrameReader
	writer *protocol.FrameWriter
}

// New captures the immutable upgrade snapshot for a single connection.
// The application context is captured here, before initialization, the
// same way the handshake metadata is.
func New(ep api.Endpoint, cfg *api.EndpointConfig, meta *api.HandshakeMetadata,
	reg api.Registry, holder *appctx.Holder, appCtx api.Context) *Bridge {

	if cfg == nil {
		cfg = &api.EndpointConfig{}
	}
	return &Bridge{
		endpoint: ep,
		cfg:      cfg,
		meta:     meta,
		registry: reg,
		holder:   holder,
		appCtx:   appCtx,
	}
}

// Initialize acquires the transport's input source and output sink, builds
// the writer, session, and reader, registers the readiness listeners, and
// invokes the endpoint's OnOpen, all under the application's execution
// context. The session is registered with the container only after OnOpen
// returns successfully, so the application always observes OnOpen before
// the connection is discoverable.
//
// Failure classes: source/sink acquisition wraps
// api.ErrTransportAcquisition; an invalid endpoint or encoder setup wraps
// api.ErrConfiguration. Both are fatal and leave no partially usable
// bridge. The caller's execution context is restored on every exit path.
func (b *Bridge) Initialize(tr api.Transport) error {
	src, err := tr.InputSource()
	if err != nil {
		return fmt.Errorf("%w: input source: %v", api.ErrTransportAcquisition, err)
	}
	sink, err := tr.OutputSink()
	if err != nil {
		return fmt.Errorf("%w: output sink: %v", api.ErrTransportAcquisition, err)
	}

	return b.holder.With(b.appCtx, func() error {
		b.writer = protocol.NewFrameWriter(sink)

		sess, err := session.New(b.endpoint, b.cfg, b.meta, b.writer, tr,
			b.registry, b.holder, b.appCtx)
		if err != nil {
			return err
		}
		b.sess = sess
		b.reader = protocol.NewFrameReader(src, sess)

		tr.SetReadListener(&readinessListener{bridge: b, reader: b.reader})
		tr.SetWriteListener(&writabilityListener{bridge: b, writer: b.writer})

		if err := b.endpoint.OnOpen(sess, b.cfg); err != nil {
			return fmt.Errorf("endpoint onOpen: %w", err)
		}
		if b.registry != nil {
			return b.registry.Register(b.cfg.Name, sess)
		}
		return nil
	})
}

// OnError hands an unclassified failure to the application under its
// execution context. The context is restored even if the callback panics.
// The bridge takes no closing action here: whichever collaborator detected
// the error, or the application itself, decides about closure.
func (b *Bridge) OnError(err error) {
	_ = b.holder.With(b.appCtx, func() error {
		b.endpoint.OnError(b.sess, err)
		return nil
	})
}

// close gives up on a cooperative close handshake. Any call here results
// from a problem reading from the peer, so the connection state is
// unknown: waiting for a peer close frame risks an indefinite hang.
// Idempotent through the session's terminal transition.
func (b *Bridge) close(reason api.CloseReason) {
	b.sess.OnClose(reason)
}

// Session exposes the session owned by this bridge.
func (b *Bridge) Session() api.Session {
	return b.sess
}
