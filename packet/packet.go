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

// Package packet is the fixed binary layout carried by every UDP datagram
// a datahub/datalink pair exchanges: a 4-byte big-endian sequence number,
// an 8-byte big-endian microsecond timestamp, and up to 1420 bytes of
// payload. The same layout serves both sent and received packets.
package packet

import (
	"encoding/binary"
	"time"

	rerr "rcom/rerrors"
)

const (
	// MaxPayload is the largest payload a Packet can carry.
	MaxPayload = 1420

	// HeaderSize is the fixed seqnum+timestamp prefix.
	HeaderSize = 12

	// MaxSize is the largest a Packet's wire encoding can be, sized to
	// fit an Ethernet MTU minus IP/UDP headers.
	MaxSize = HeaderSize + MaxPayload
)

// Packet is a fixed-layout buffer: 4 bytes seqnum, 8 bytes timestamp, up
// to MaxPayload bytes of payload. Packet is not safe for concurrent use;
// callers hand one to a single goroutine at a time (the send or receive
// path owns it).
type Packet struct {
	buf [MaxSize]byte
	n   int
}

// New returns an empty Packet: seqnum 0, unstamped, zero-length payload.
func New() *Packet {
	return &Packet{}
}

// Seqnum reads the sequence number.
func (p *Packet) Seqnum() uint32 {
	return binary.BigEndian.Uint32(p.buf[0:4])
}

// SetSeqnum writes the sequence number.
func (p *Packet) SetSeqnum(n uint32) {
	binary.BigEndian.PutUint32(p.buf[0:4], n)
}

// Timestamp reads the stamped time, or the zero time if unstamped.
func (p *Packet) Timestamp() time.Time {
	us := binary.BigEndian.Uint64(p.buf[4:12])
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(int64(us))
}

// SetTimestamp stamps t as microseconds since the Unix epoch.
func (p *Packet) SetTimestamp(t time.Time) {
	binary.BigEndian.PutUint64(p.buf[4:12], uint64(t.UnixMicro()))
}

// SetTimestampNow stamps the current time.
func (p *Packet) SetTimestampNow() {
	p.SetTimestamp(time.Now())
}

// ClearTimestamp zeros the timestamp field, meaning "unstamped".
func (p *Packet) ClearTimestamp() {
	binary.BigEndian.PutUint64(p.buf[4:12], 0)
}

// Payload returns the payload bytes currently held. The returned slice
// aliases the Packet's own storage; callers that need to retain it past
// the next SetPayload must copy it.
func (p *Packet) Payload() []byte {
	return p.buf[HeaderSize : HeaderSize+p.n]
}

// SetPayload copies data into the payload, truncating to MaxPayload and
// reporting whether truncation occurred.
func (p *Packet) SetPayload(data []byte) (truncated bool) {
	n := len(data)
	if n > MaxPayload {
		n = MaxPayload
		truncated = true
	}
	copy(p.buf[HeaderSize:HeaderSize+n], data[:n])
	p.n = n
	return truncated
}

// Len returns the payload length.
func (p *Packet) Len() int {
	return p.n
}

// Bytes returns the wire encoding: header followed by the payload
// currently held, HeaderSize+Len() bytes long. The returned slice
// aliases the Packet's own storage.
func (p *Packet) Bytes() []byte {
	return p.buf[:HeaderSize+p.n]
}

// UnmarshalBytes loads a Packet from a received datagram. A datagram
// shorter than HeaderSize or longer than MaxSize is a protocol error.
func (p *Packet) UnmarshalBytes(data []byte) error {
	if len(data) < HeaderSize {
		return rerr.Newf(rerr.ProtocolError.Uint16(), "packet: %d bytes: shorter than header", len(data))
	}
	if len(data) > MaxSize {
		return rerr.Newf(rerr.ProtocolError.Uint16(), "packet: %d bytes: exceeds max packet size", len(data))
	}

	copy(p.buf[:], data)
	p.n = len(data) - HeaderSize
	return nil
}
