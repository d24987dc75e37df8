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

// Package wsframe is the RFC 6455 WebSocket handshake and minimal frame
// codec shared by messagehub (server role) and messagelink (client
// role): no extensions, no subprotocols, no continuation multiplexing
// beyond the minimum the spec requires.
package wsframe

import (
	"bufio"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/textproto"

	rerr "rcom/rerrors"
)

// magicGUID is the fixed string RFC 6455 §1.3 appends to the client's
// key before hashing.
const magicGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// AcceptKey computes the Sec-WebSocket-Accept value for a given
// Sec-WebSocket-Key, per RFC 6455 §1.3.
func AcceptKey(clientKey string) string {
	h := sha1.New()
	h.Write([]byte(clientKey))
	h.Write([]byte(magicGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// NewClientKey generates a fresh, random Sec-WebSocket-Key for a
// handshake request.
func NewClientKey() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", rerr.Newf(rerr.Internal.Uint16(), "wsframe: generating client key: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw[:]), nil
}

// WriteServerHandshake sends the HTTP 101 response accepting a validated
// upgrade request.
func WriteServerHandshake(w *bufio.Writer, clientKey string) error {
	if _, err := fmt.Fprintf(w,
		"HTTP/1.1 101 Switching Protocols\r\n"+
			"Upgrade: websocket\r\n"+
			"Connection: Upgrade\r\n"+
			"Sec-WebSocket-Accept: %s\r\n\r\n",
		AcceptKey(clientKey)); err != nil {
		return err
	}
	return w.Flush()
}

// WriteClientHandshake sends the upgrade request a messagelink issues
// when connecting to a messagehub.
func WriteClientHandshake(w *bufio.Writer, host, clientKey string) error {
	if _, err := fmt.Fprintf(w,
		"GET / HTTP/1.1\r\n"+
			"Host: %s\r\n"+
			"Upgrade: websocket\r\n"+
			"Connection: Upgrade\r\n"+
			"Sec-WebSocket-Key: %s\r\n"+
			"Sec-WebSocket-Version: 13\r\n\r\n",
		host, clientKey); err != nil {
		return err
	}
	return w.Flush()
}

// ReadServerHandshakeResponse reads and validates the server's 101
// response against the key sent with the request.
func ReadServerHandshakeResponse(r *bufio.Reader, clientKey string) error {
	tp := textproto.NewReader(r)

	line, err := tp.ReadLine()
	if err != nil {
		return rerr.Newf(rerr.ProtocolError.Uint16(), "wsframe: reading handshake response: %v", err)
	}
	if line != "HTTP/1.1 101 Switching Protocols" {
		return rerr.Newf(rerr.ProtocolError.Uint16(), "wsframe: unexpected handshake status: %q", line)
	}

	hdr, err := tp.ReadMIMEHeader()
	if err != nil && len(hdr) == 0 {
		return rerr.Newf(rerr.ProtocolError.Uint16(), "wsframe: reading handshake headers: %v", err)
	}

	want := AcceptKey(clientKey)
	if got := hdr.Get("Sec-WebSocket-Accept"); got != want {
		return rerr.Newf(rerr.ProtocolError.Uint16(), "wsframe: Sec-WebSocket-Accept mismatch: got %q want %q", got, want)
	}

	return nil
}
