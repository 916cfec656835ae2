// File: protocol/constants.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WebSocket wire protocol constants.

package protocol

const (
	// Data opcodes (<0x8) and control opcodes (>=0x8)
	OpcodeContinuation = 0x0
	OpcodeText         = 0x1
	OpcodeBinary       = 0x2
	OpcodeClose        = 0x8
	OpcodePing         = 0x9
	OpcodePong         = 0xA

	// Frame limit settings
	MaxControlPayloadLen = 125
	MaxFrameHeaderLen    = 14 // extended payload length plus masking key

	// Bit masks
	FinBit  = 0x80
	MaskBit = 0x80
)

// MaxFramePayload defines the maximum allowed payload size for a single
// frame. This limit protects against excessively large frames that could
// exhaust memory.
const MaxFramePayload = 1 << 20 // 1 MiB

// isControl reports whether opcode denotes a control frame.
func isControl(opcode byte) bool {
	return opcode >= OpcodeClose
}

// isKnown reports whether opcode is defined by RFC6455.
func isKnown(opcode byte) bool {
	switch opcode {
	case OpcodeContinuation, OpcodeText, OpcodeBinary,
		OpcodeClose, OpcodePing, OpcodePong:
		return true
	}
	return false
}
