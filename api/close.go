// File: api/close.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RFC6455 close status codes and the CloseReason value passed through
// session teardown.

package api

import "fmt"

// CloseCode is a numeric close status code per RFC6455 section 7.4.1.
type CloseCode uint16

const (
	CloseNormalClosure      CloseCode = 1000
	CloseGoingAway          CloseCode = 1001
	CloseProtocolError      CloseCode = 1002
	CloseUnsupportedData    CloseCode = 1003
	CloseNoStatusRcvd       CloseCode = 1005
	CloseAbnormalClosure    CloseCode = 1006
	CloseInvalidPayloadData CloseCode = 1007
	ClosePolicyViolation    CloseCode = 1008
	CloseMessageTooBig      CloseCode = 1009
	CloseMissingExtension   CloseCode = 1010
	CloseInternalServerErr  CloseCode = 1011
)

// CloseReason pairs a close code with a human-readable phrase.
type CloseReason struct {
	Code   CloseCode
	Phrase string
}

// NewCloseReason builds a CloseReason from code and phrase.
func NewCloseReason(code CloseCode, phrase string) CloseReason {
	return CloseReason{Code: code, Phrase: phrase}
}

// String renders the reason for logs and diagnostics.
func (r CloseReason) String() string {
	if r.Phrase == "" {
		return fmt.Sprintf("close %d", r.Code)
	}
	return fmt.Sprintf("close %d: %s", r.Code, r.Phrase)
}
