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

// Package httpwire is the minimal HTTP/1.1 request/response codec shared
// by service (full request+body), the messagehub/messagelink upgrade
// handshake (header-only), and streamerlink's outbound GET. It only
// understands Content-Length bodies; chunked requests are out of scope,
// matching the original request parser.
package httpwire

import (
	"bufio"
	"net/textproto"
	"strconv"
	"strings"

	rerr "rcom/rerrors"
)

// Request is a parsed HTTP/1.1 request head plus, when present, its
// Content-Length body.
type Request struct {
	Method string
	URI    string
	Args   string
	Proto  string
	Header textproto.MIMEHeader
	Body   []byte
}

// ParseRequest reads a request line, headers, and a Content-Length body
// (if any) from r. It does not support chunked request bodies.
func ParseRequest(r *bufio.Reader) (*Request, error) {
	tp := textproto.NewReader(r)

	line, err := tp.ReadLine()
	if err != nil {
		return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: reading request line: %v", err)
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: malformed request line: %q", line)
	}

	uri, args, _ := strings.Cut(parts[1], "?")

	req := &Request{
		Method: parts[0],
		URI:    uri,
		Args:   args,
		Proto:  parts[2],
	}

	hdr, err := tp.ReadMIMEHeader()
	if err != nil && len(hdr) == 0 {
		return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: reading headers: %v", err)
	}
	req.Header = hdr

	if cl := hdr.Get("Content-Length"); cl != "" {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 {
			return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: invalid Content-Length: %q", cl)
		}

		body := make([]byte, n)
		if n > 0 {
			if _, err := readFull(r, body); err != nil {
				return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: reading body: %v", err)
			}
		}
		req.Body = body
	}

	return req, nil
}

// HeaderValue looks up a header case-insensitively.
func (r *Request) HeaderValue(key string) string {
	return r.Header.Get(key)
}

// IsWebSocketUpgrade reports whether this request carries the headers a
// messagehub needs to accept: Connection: Upgrade, Upgrade: websocket,
// and a Sec-WebSocket-Key.
func (r *Request) IsWebSocketUpgrade() bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") &&
		r.Header.Get("Sec-WebSocket-Key") != ""
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
