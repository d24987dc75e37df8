/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package wsframe

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	rerr "rcom/rerrors"
)

// Opcode identifies a frame's payload interpretation.
type Opcode byte

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

// Close codes used by this module, per spec.md §4.5.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	CloseProtocolError   = 1002
	CloseUnsupportedData = 1003
	ClosePolicyViolation = 1008
	CloseInternalError   = 1011
)

// Frame is a single, fully-assembled WebSocket frame: no continuation
// multiplexing beyond receiving a single frame at a time.
type Frame struct {
	Opcode  Opcode
	Payload []byte
}

// WriteFrame writes a single unmasked frame (server-to-client direction)
// with opcode and payload as its sole fragment.
func WriteFrame(w io.Writer, opcode Opcode, payload []byte) error {
	return writeFrame(w, opcode, payload, false)
}

// WriteMaskedFrame writes a single masked frame (client-to-server
// direction), generating a fresh random mask key per RFC 6455 §5.3.
func WriteMaskedFrame(w io.Writer, opcode Opcode, payload []byte) error {
	return writeFrame(w, opcode, payload, true)
}

func writeFrame(w io.Writer, opcode Opcode, payload []byte, masked bool) error {
	var head [10]byte
	head[0] = 0x80 | byte(opcode) // FIN=1, single-frame messages only

	n := len(payload)
	maskBit := byte(0)
	if masked {
		maskBit = 0x80
	}

	var headLen int
	switch {
	case n <= 125:
		head[1] = maskBit | byte(n)
		headLen = 2
	case n <= 65535:
		head[1] = maskBit | 126
		binary.BigEndian.PutUint16(head[2:4], uint16(n))
		headLen = 4
	default:
		head[1] = maskBit | 127
		binary.BigEndian.PutUint64(head[2:10], uint64(n))
		headLen = 10
	}

	if _, err := w.Write(head[:headLen]); err != nil {
		return err
	}

	if !masked {
		_, err := w.Write(payload)
		return err
	}

	var key [4]byte
	if _, err := rand.Read(key[:]); err != nil {
		return rerr.Newf(rerr.Internal.Uint16(), "wsframe: generating mask key: %v", err)
	}
	if _, err := w.Write(key[:]); err != nil {
		return err
	}

	maskedPayload := make([]byte, n)
	for i, b := range payload {
		maskedPayload[i] = b ^ key[i%4]
	}
	_, err := w.Write(maskedPayload)
	return err
}

// ReadFrame reads a single frame from r. It understands the 7/16/64-bit
// length encoding and both masked (client-to-server) and unmasked
// (server-to-client) payloads.
func ReadFrame(r io.Reader) (*Frame, error) {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "wsframe: reading frame header: %v", err)
	}

	opcode := Opcode(head[0] & 0x0F)
	masked := head[1]&0x80 != 0
	length := uint64(head[1] & 0x7F)

	switch length {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "wsframe: reading extended length: %v", err)
		}
		length = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "wsframe: reading extended length: %v", err)
		}
		length = binary.BigEndian.Uint64(ext[:])
	}

	var key [4]byte
	if masked {
		if _, err := io.ReadFull(r, key[:]); err != nil {
			return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "wsframe: reading mask key: %v", err)
		}
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "wsframe: reading payload: %v", err)
		}
	}

	if masked {
		for i := range payload {
			payload[i] ^= key[i%4]
		}
	}

	return &Frame{Opcode: opcode, Payload: payload}, nil
}
