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

// Package messagelink is the per-connection WebSocket frame runtime
// shared by both ends of a messagehub/messagelink pair: a messagehub
// wraps each accepted connection in a Link with RoleServer once its
// server-side handshake completes, and Dial builds the client-side
// Messagelink named in spec.md §4.5 as a Link with RoleClient. Both
// roles share the same Send*/ReadMessage/Listen surface; only the
// masking direction of outgoing frames differs.
package messagelink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"rcom/rctx"
	rerr "rcom/rerrors"
	"rcom/rlog"
	"rcom/wsframe"
)

// Role distinguishes which side of the handshake a Link plays, since RFC
// 6455 requires client-to-server frames to be masked and server-to-client
// frames to stay unmasked.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// OnMessage is invoked for each inbound JSON message once Listen is
// running. It must not block.
type OnMessage func(link *Link, msg json.RawMessage)

// Link is one upgraded WebSocket connection. It is safe to call the
// Send* methods from multiple goroutines; writes are serialized
// internally. ReadMessage and Listen are not safe to use together or
// concurrently with each other - a link is read from exactly one place
// at a time.
type Link struct {
	conn net.Conn
	r    *bufio.Reader
	role Role
	log  rlog.Logger

	wmu sync.Mutex
}

// New wraps an already-upgraded connection into a Link. r must be the
// same *bufio.Reader the caller used to read the handshake, so that any
// bytes buffered ahead of the upgrade response are not lost.
func New(conn net.Conn, r *bufio.Reader, role Role, log rlog.Logger) *Link {
	return &Link{conn: conn, r: r, role: role, log: log}
}

// Dial opens a TCP connection to addr and performs the client-side RFC
// 6455 handshake on path "/", returning a Link with RoleClient - the
// Messagelink of spec.md §4.5.
func Dial(addr string, log rlog.Logger) (*Link, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, rerr.Newf(rerr.NetworkUnreachable.Uint16(), "messagelink: dial %s: %v", addr, err)
	}

	key, err := wsframe.NewClientKey()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	bw := bufio.NewWriter(conn)
	if err := wsframe.WriteClientHandshake(bw, addr, key); err != nil {
		_ = conn.Close()
		return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "messagelink: writing handshake: %v", err)
	}

	br := bufio.NewReader(conn)
	if err := wsframe.ReadServerHandshakeResponse(br, key); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return New(conn, br, RoleClient, log), nil
}

// RemoteAddr reports the peer's network address.
func (l *Link) RemoteAddr() string {
	return l.conn.RemoteAddr().String()
}

// LocalAddr reports this end's own network address.
func (l *Link) LocalAddr() string {
	return l.conn.LocalAddr().String()
}

// SendObj serializes v to JSON and transmits it as a single text frame.
func (l *Link) SendObj(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return rerr.Newf(rerr.InvalidArgument.Uint16(), "messagelink: marshaling message: %v", err)
	}
	return l.writeText(payload)
}

// SendStr JSON-encodes s as a string and transmits it as a single text
// frame.
func (l *Link) SendStr(s string) error {
	return l.SendObj(s)
}

// SendNum JSON-encodes n and transmits it as a single text frame.
func (l *Link) SendNum(n float64) error {
	return l.SendObj(n)
}

// SendF formats a string with fmt.Sprintf, JSON-encodes the result, and
// transmits it as a single text frame.
func (l *Link) SendF(format string, args ...any) error {
	return l.SendStr(fmt.Sprintf(format, args...))
}

func (l *Link) writeText(payload []byte) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()

	if l.role == RoleClient {
		return wsframe.WriteMaskedFrame(l.conn, wsframe.OpText, payload)
	}
	return wsframe.WriteFrame(l.conn, wsframe.OpText, payload)
}

// Close sends a close frame with the given close code and closes the
// underlying connection.
func (l *Link) Close(code uint16) error {
	payload := make([]byte, 2)
	payload[0] = byte(code >> 8)
	payload[1] = byte(code)

	l.wmu.Lock()
	var sendErr error
	if l.role == RoleClient {
		sendErr = wsframe.WriteMaskedFrame(l.conn, wsframe.OpClose, payload)
	} else {
		sendErr = wsframe.WriteFrame(l.conn, wsframe.OpClose, payload)
	}
	l.wmu.Unlock()

	closeErr := l.conn.Close()
	if sendErr != nil {
		return sendErr
	}
	return closeErr
}

// ReadMessage blocks for the next inbound JSON text message, replying to
// pings transparently and returning rerrors.PeerClosed once the peer
// sends a close frame.
func (l *Link) ReadMessage() (json.RawMessage, error) {
	for {
		f, err := wsframe.ReadFrame(l.r)
		if err != nil {
			return nil, err
		}

		switch f.Opcode {
		case wsframe.OpText, wsframe.OpBinary:
			return json.RawMessage(f.Payload), nil
		case wsframe.OpPing:
			if err := l.pong(f.Payload); err != nil {
				return nil, err
			}
		case wsframe.OpPong:
			// no-op: this module never sends unsolicited pings to await
		case wsframe.OpClose:
			return nil, rerr.New(rerr.PeerClosed.Uint16(), "messagelink: peer closed the connection")
		default:
			return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "messagelink: unexpected opcode %d", f.Opcode)
		}
	}
}

func (l *Link) pong(payload []byte) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()

	if l.role == RoleClient {
		return wsframe.WriteMaskedFrame(l.conn, wsframe.OpPong, payload)
	}
	return wsframe.WriteFrame(l.conn, wsframe.OpPong, payload)
}

// Listen starts a background goroutine that calls ReadMessage in a loop
// and invokes onMessage for each message, until rt is canceled or the
// connection fails. The goroutine closes the connection on exit.
func (l *Link) Listen(rt rctx.Runtime, onMessage OnMessage) {
	go func() {
		defer func() { _ = l.conn.Close() }()

		for {
			select {
			case <-rt.Done():
				return
			default:
			}

			msg, err := l.ReadMessage()
			if err != nil {
				if l.log != nil {
					l.log.Debug("messagelink: reader exiting: %v", err)
				}
				return
			}
			onMessage(l, msg)
		}
	}()
}
