// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

// session_test.go: Session lifecycle: control frame handling, message
// reassembly, and the exactly-once terminal transition.
package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/momentics/wsbridge/api"
	"github.com/momentics/wsbridge/appctx"
	"github.com/momentics/wsbridge/fake"
	"github.com/momentics/wsbridge/protocol"
)

// recordingEndpoint records lifecycle callbacks.
type recordingEndpoint struct {
	mu     sync.Mutex
	opened int
	errs   []error
	closes []api.CloseReason
}

func (e *recordingEndpoint) OnOpen(s api.Session, cfg *api.EndpointConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened++
	return nil
}

func (e *recordingEndpoint) OnError(s api.Session, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, err)
}

func (e *recordingEndpoint) OnClose(s api.Session, reason api.CloseReason) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closes = append(e.closes, reason)
}

func (e *recordingEndpoint) closeReasons() []api.CloseReason {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]api.CloseReason(nil), e.closes...)
}

type harness struct {
	ep   *recordingEndpoint
	tr   *fake.Transport
	reg  *fake.Registry
	sess *Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ep := &recordingEndpoint{}
	tr := fake.NewTransport()
	reg := fake.NewRegistry()
	sink, _ := tr.OutputSink()
	writer := protocol.NewFrameWriter(sink)
	holder := appctx.NewHolder(nil)

	sess, err := New(ep, &api.EndpointConfig{Name: "test"},
		&api.HandshakeMetadata{PathParameters: map[string]string{}},
		writer, tr, reg, holder, appctx.NewContext())
	if err != nil {
		t.Fatalf("session construction failed: %v", err)
	}
	_ = reg.Register("test", sess)
	return &harness{ep: ep, tr: tr, reg: reg, sess: sess}
}

func TestSession_ConfigurationValidation(t *testing.T) {
	writer := protocol.NewFrameWriter(&fake.Sink{})
	holder := appctx.NewHolder(nil)
	meta := &api.HandshakeMetadata{}

	_, err := New(nil, nil, meta, writer, nil, nil, holder, nil)
	if !errors.Is(err, api.ErrConfiguration) {
		t.Errorf("nil endpoint: expected ErrConfiguration, got %v", err)
	}

	_, err = New(&recordingEndpoint{}, &api.EndpointConfig{Encoders: []api.Encoder{nil}},
		meta, writer, nil, nil, holder, nil)
	if !errors.Is(err, api.ErrConfiguration) {
		t.Errorf("nil encoder: expected ErrConfiguration, got %v", err)
	}

	_, err = New(&recordingEndpoint{}, nil, nil, writer, nil, nil, holder, nil)
	if !errors.Is(err, api.ErrConfiguration) {
		t.Errorf("nil metadata: expected ErrConfiguration, got %v", err)
	}
}

func TestSession_PingAnswersPong(t *testing.T) {
	h := newHarness(t)

	if err := h.sess.HandleFrame(true, protocol.OpcodePing, []byte("beat")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := protocol.EncodeFrame(true, protocol.OpcodePong, []byte("beat"))
	if got := h.tr.Sink.Written(); string(got) != string(want) {
		t.Error("pong not sent back with ping payload")
	}
}

func TestSession_PeerCloseTriggersTerminalTransition(t *testing.T) {
	h := newHarness(t)

	payload := protocol.EncodeCloseReason(api.NewCloseReason(api.CloseGoingAway, "bye"))
	if err := h.sess.HandleFrame(true, protocol.OpcodeClose, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	closes := h.ep.closeReasons()
	if len(closes) != 1 {
		t.Fatalf("OnClose fired %d times, want 1", len(closes))
	}
	if closes[0].Code != api.CloseGoingAway {
		t.Errorf("close code %d, want 1001", closes[0].Code)
	}
	if h.sess.IsOpen() {
		t.Error("session still open after peer close")
	}
	if h.reg.Len() != 0 {
		t.Error("session not removed from registry")
	}
	if h.tr.CloseCount() != 1 {
		t.Error("transport not torn down")
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	h := newHarness(t)

	reason := api.NewCloseReason(api.CloseAbnormalClosure, "gone")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.sess.OnClose(reason)
		}()
	}
	wg.Wait()
	h.sess.OnClose(reason)

	if got := len(h.ep.closeReasons()); got != 1 {
		t.Errorf("OnClose fired %d times under concurrent close, want 1", got)
	}
}

func TestSession_NoFrameProcessingAfterClose(t *testing.T) {
	h := newHarness(t)
	var delivered int
	h.sess.SetHandler(api.HandlerFunc(func(any) error {
		delivered++
		return nil
	}))

	h.sess.OnClose(api.NewCloseReason(api.CloseNormalClosure, ""))
	if err := h.sess.HandleFrame(true, protocol.OpcodeText, []byte("late")); err != nil {
		t.Fatalf("post-close frames must be dropped silently, got %v", err)
	}
	if delivered != 0 {
		t.Error("frame delivered after close")
	}
	if err := h.sess.SendText("late"); !errors.Is(err, api.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestSession_FragmentedMessageReassembly(t *testing.T) {
	h := newHarness(t)
	var got []string
	h.sess.SetHandler(api.HandlerFunc(func(data any) error {
		got = append(got, data.(string))
		return nil
	}))

	if err := h.sess.HandleFrame(false, protocol.OpcodeText, []byte("hel")); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.HandleFrame(false, protocol.OpcodeContinuation, []byte("lo ")); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.HandleFrame(true, protocol.OpcodeContinuation, []byte("world")); err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 || got[0] != "hello world" {
		t.Errorf("reassembled %q, want [\"hello world\"]", got)
	}
}

func TestSession_FragmentViolations(t *testing.T) {
	h := newHarness(t)

	err := h.sess.HandleFrame(true, protocol.OpcodeContinuation, []byte("orphan"))
	var perr *api.ProtocolError
	if !errors.As(err, &perr) || perr.Code != api.CloseProtocolError {
		t.Errorf("orphan continuation: expected 1002 ProtocolError, got %v", err)
	}

	h2 := newHarness(t)
	_ = h2.sess.HandleFrame(false, protocol.OpcodeText, []byte("start"))
	err = h2.sess.HandleFrame(true, protocol.OpcodeBinary, []byte("interleaved"))
	if !errors.As(err, &perr) || perr.Code != api.CloseProtocolError {
		t.Errorf("interleaved fragments: expected 1002 ProtocolError, got %v", err)
	}
}

// jsonishEncoder encodes string-keyed maps for SendMessage tests.
type jsonishEncoder struct{}

func (jsonishEncoder) Handles(v any) bool { _, ok := v.(map[string]string); return ok }
func (jsonishEncoder) Encode(v any) ([]byte, bool, error) {
	m := v.(map[string]string)
	return []byte("kv:" + m["k"]), false, nil
}

func TestSession_SendMessageUsesEncoders(t *testing.T) {
	ep := &recordingEndpoint{}
	tr := fake.NewTransport()
	sink, _ := tr.OutputSink()
	writer := protocol.NewFrameWriter(sink)

	sess, err := New(ep, &api.EndpointConfig{Encoders: []api.Encoder{jsonishEncoder{}}},
		&api.HandshakeMetadata{}, writer, tr, nil, appctx.NewHolder(nil), nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := sess.SendMessage(map[string]string{"k": "v"}); err != nil {
		t.Fatalf("encoded send failed: %v", err)
	}
	want := protocol.EncodeFrame(true, protocol.OpcodeText, []byte("kv:v"))
	if string(tr.Sink.Written()) != string(want) {
		t.Error("encoder output not sent")
	}

	if err := sess.SendMessage(42); err == nil {
		t.Error("expected error for type without encoder")
	}
}
