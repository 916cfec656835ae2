// File: api/errors.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error taxonomy for the upgrade bridge. Initialization failures split into
// transport acquisition and configuration classes, decode failures carry a
// close code, truncation maps to abnormal closure, and everything else is
// handed to the application unclassified.

package api

import (
	"errors"
	"fmt"
)

// Sentinel errors used across the library.
var (
	// ErrTransportAcquisition marks a failed attempt to obtain the
	// transport's input source or output sink. Fatal to initialization.
	ErrTransportAcquisition = errors.New("transport source/sink acquisition failed")

	// ErrConfiguration marks an invalid endpoint or encoder setup detected
	// during session construction. Fatal to initialization, reported
	// separately from transport failures.
	ErrConfiguration = errors.New("endpoint configuration invalid")

	// ErrTruncatedStream reports that the input stream ended before a
	// complete frame could be read. Mapped to CloseAbnormalClosure.
	ErrTruncatedStream = errors.New("stream truncated mid-frame")

	// ErrAgain reports that a non-blocking source has no bytes buffered or
	// a non-blocking sink cannot currently accept more bytes.
	ErrAgain = errors.New("operation would block")

	// ErrSessionClosed is returned by send operations after the session's
	// terminal transition.
	ErrSessionClosed = errors.New("session is closed")

	// ErrRegistryClosed is returned by registry operations after shutdown.
	ErrRegistryClosed = errors.New("registry is closed")
)

// ProtocolError is a typed decode violation carrying the precise close code
// the decoder determined. The bridge closes the session with this code
// directly; the application's OnError is not involved.
type ProtocolError struct {
	Code   CloseCode
	Reason string
	Err    error // underlying cause, optional
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol violation (code %d): %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol violation (code %d): %s", e.Code, e.Reason)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ProtocolError) Unwrap() error { return e.Err }

// CloseReason converts the violation into the reason the session is
// closed with.
func (e *ProtocolError) CloseReason() CloseReason {
	return CloseReason{Code: e.Code, Phrase: e.Reason}
}

// NewProtocolError builds a ProtocolError with code and reason.
func NewProtocolError(code CloseCode, reason string) *ProtocolError {
	return &ProtocolError{Code: code, Reason: reason}
}
