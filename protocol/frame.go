// File: protocol/frame.go
// Package protocol implements the WebSocket frame codec for the bridge.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Frame decoding works on accumulated byte buffers so the reader never
// blocks: an incomplete frame simply reports zero consumed bytes and waits
// for the next readiness notification. Violations carry the close code the
// peer must be told about.

package protocol

import (
	"encoding/binary"

	"github.com/momentics/wsbridge/api"
)

// Frame represents a decoded WebSocket frame.
type Frame struct {
	IsFinal    bool  // FIN bit
	Opcode     byte  // Operation code
	Masked     bool  // Whether the frame arrived masked
	PayloadLen int64 // Actual payload length
	MaskKey    [4]byte
	Payload    []byte
}

// DecodeFrameFromBytes parses one frame from raw, enforcing size and
// framing rules. Returns the frame and the number of consumed bytes.
// An incomplete frame returns (nil, 0, nil). requireMask enforces
// client-to-server masking per RFC6455.
func DecodeFrameFromBytes(raw []byte, requireMask bool) (*Frame, int, error) {
	if len(raw) < 2 {
		return nil, 0, nil // incomplete
	}

	if raw[0]&0x70 != 0 {
		return nil, 0, api.NewProtocolError(api.CloseProtocolError, "reserved bits set without negotiated extension")
	}

	fin := raw[0]&FinBit != 0
	opcode := raw[0] & 0x0F
	masked := raw[1]&MaskBit != 0
	length := int64(raw[1] & 0x7F)
	offset := 2

	if !isKnown(opcode) {
		return nil, 0, api.NewProtocolError(api.CloseProtocolError, "unknown opcode")
	}
	if isControl(opcode) {
		if !fin {
			return nil, 0, api.NewProtocolError(api.CloseProtocolError, "fragmented control frame")
		}
		if length > MaxControlPayloadLen {
			return nil, 0, api.NewProtocolError(api.CloseProtocolError, "control frame payload too long")
		}
	}
	if requireMask && !masked {
		return nil, 0, api.NewProtocolError(api.CloseProtocolError, "unmasked client frame")
	}

	switch length {
	case 126:
		if len(raw) < offset+2 {
			return nil, 0, nil // incomplete
		}
		length = int64(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case 127:
		if len(raw) < offset+8 {
			return nil, 0, nil // incomplete
		}
		length = int64(binary.BigEndian.Uint64(raw[offset:]))
		offset += 8
	}

	if length < 0 || length > MaxFramePayload {
		return nil, 0, api.NewProtocolError(api.CloseMessageTooBig, "frame payload exceeds maximum allowed size")
	}

	var maskKey [4]byte
	if masked {
		if len(raw) < offset+4 {
			return nil, 0, nil // incomplete
		}
		copy(maskKey[:], raw[offset:offset+4])
		offset += 4
	}

	totalLen := offset + int(length)
	if len(raw) < totalLen {
		return nil, 0, nil // incomplete
	}

	payload := make([]byte, length)
	copy(payload, raw[offset:totalLen])
	if masked {
		unmaskInPlace(payload, maskKey)
	}

	return &Frame{
		IsFinal:    fin,
		Opcode:     opcode,
		Masked:     masked,
		PayloadLen: length,
		MaskKey:    maskKey,
		Payload:    payload,
	}, totalLen, nil
}

// EncodeFrame serializes an unmasked server-to-client frame.
func EncodeFrame(fin bool, opcode byte, payload []byte) []byte {
	var finBit byte
	if fin {
		finBit = FinBit
	}

	dst := make([]byte, 0, MaxFrameHeaderLen+len(payload))
	dst = append(dst, finBit|opcode)

	payloadLen := len(payload)
	switch {
	case payloadLen <= 125:
		dst = append(dst, byte(payloadLen))
	case payloadLen <= 0xFFFF:
		dst = append(dst, 126, 0, 0)
		binary.BigEndian.PutUint16(dst[2:], uint16(payloadLen))
	default:
		dst = append(dst, 127, 0, 0, 0, 0, 0, 0, 0, 0)
		binary.BigEndian.PutUint64(dst[2:], uint64(payloadLen))
	}

	return append(dst, payload...)
}

// EncodeCloseReason builds a close frame payload from code and phrase,
// truncating the phrase to fit the control payload limit.
func EncodeCloseReason(reason api.CloseReason) []byte {
	phrase := []byte(reason.Phrase)
	if len(phrase) > MaxControlPayloadLen-2 {
		phrase = phrase[:MaxControlPayloadLen-2]
	}
	payload := make([]byte, 2+len(phrase))
	binary.BigEndian.PutUint16(payload, uint16(reason.Code))
	copy(payload[2:], phrase)
	return payload
}

// DecodeCloseReason parses a close frame payload. An empty payload means
// no status code was present (1005).
func DecodeCloseReason(payload []byte) api.CloseReason {
	if len(payload) < 2 {
		return api.CloseReason{Code: api.CloseNoStatusRcvd}
	}
	return api.CloseReason{
		Code:   api.CloseCode(binary.BigEndian.Uint16(payload)),
		Phrase: string(payload[2:]),
	}
}

// unmaskInPlace applies XOR on payload using maskKey.
func unmaskInPlace(buf []byte, key [4]byte) {
	for i := 0; i < len(buf); i++ {
		buf[i] ^= key[i%4]
	}
}
