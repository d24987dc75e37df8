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

// Package multipart is the streamer wire codec: a restartable state
// machine that decodes "--nextimage"-bounded parts from arbitrary byte
// chunks (a chunk may straddle any header/body boundary), and an
// Encode helper building the matching part on the producer side.
package multipart

import (
	"bytes"
	"fmt"
	"strconv"

	rerr "rcom/rerrors"
)

// Boundary is the literal multipart boundary this module uses on the
// wire, matching streamer/streamerlink on both sides.
const Boundary = "--nextimage"

// State is one of the parser's four states (plus Error).
type State int

const (
	ReadHeader State = iota
	HeaderComplete
	ReadBody
	BodyComplete
	Error
)

// Part is a fully-assembled multipart part.
type Part struct {
	Payload   []byte
	MimeType  string
	Timestamp float64
}

// OnHeaders is invoked once a part's headers are complete, before its
// body is read.
type OnHeaders func(mimeType string, contentLength int, timestamp float64)

// OnPart is invoked once a part's full payload has been read.
type OnPart func(Part)

// Parser is a restartable multipart decoder. Feed it arbitrary chunks
// with Write; it invokes OnHeaders and OnPart as parts complete. Parser
// is not safe for concurrent use - one goroutine per streamerlink
// reader owns it.
type Parser struct {
	state State

	header bytes.Buffer
	body   []byte
	bodyAt int

	mimeType      string
	contentLength int
	timestamp     float64

	OnHeaders OnHeaders
	OnPart    OnPart
}

// New returns a Parser in its initial ReadHeader state.
func New() *Parser {
	return &Parser{state: ReadHeader}
}

// State reports the parser's current state.
func (p *Parser) State() State {
	return p.state
}

// Write feeds a chunk of bytes through the state machine. A chunk may
// straddle any header/body/header boundary. An error transitions the
// parser to the Error state and is returned; the parser does not
// recover from Error.
func (p *Parser) Write(chunk []byte) error {
	for len(chunk) > 0 {
		switch p.state {
		case Error:
			return rerr.New(rerr.ProtocolError.Uint16(), "multipart: parser is in the error state")

		case ReadHeader:
			p.header.Write(chunk)
			chunk = nil

			idx := bytes.Index(p.header.Bytes(), []byte("\r\n\r\n"))
			if idx < 0 {
				return nil
			}

			headerBlock := string(p.header.Bytes()[:idx])
			chunk = append([]byte(nil), p.header.Bytes()[idx+4:]...)
			p.header.Reset()

			if err := p.parseHeader(headerBlock); err != nil {
				p.state = Error
				return err
			}

			if p.OnHeaders != nil {
				p.OnHeaders(p.mimeType, p.contentLength, p.timestamp)
			}

			p.body = make([]byte, p.contentLength)
			p.bodyAt = 0
			p.state = ReadBody

		case ReadBody:
			need := p.contentLength - p.bodyAt
			n := len(chunk)
			if n > need {
				n = need
			}
			copy(p.body[p.bodyAt:], chunk[:n])
			p.bodyAt += n
			chunk = chunk[n:]

			if p.bodyAt == p.contentLength {
				p.state = BodyComplete
				if p.OnPart != nil {
					p.OnPart(Part{Payload: p.body, MimeType: p.mimeType, Timestamp: p.timestamp})
				}
				p.state = ReadHeader
			}

		default:
			return rerr.New(rerr.Internal.Uint16(), "multipart: unreachable parser state")
		}
	}

	return nil
}

// parseHeader reads the boundary line and the Content-Type,
// Content-Length and X-LT-Timestamp header lines out of a header block
// (without the trailing \r\n\r\n).
func (p *Parser) parseHeader(block string) error {
	lines := splitCRLF(block)
	if len(lines) == 0 || lines[0] != Boundary {
		return rerr.Newf(rerr.ProtocolError.Uint16(), "multipart: missing boundary %q", Boundary)
	}

	var haveLength bool
	p.mimeType = ""
	p.contentLength = 0
	p.timestamp = 0

	for _, line := range lines[1:] {
		key, value, ok := cutHeader(line)
		if !ok {
			continue
		}
		switch key {
		case "Content-Type":
			p.mimeType = value
		case "Content-Length":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return rerr.Newf(rerr.ProtocolError.Uint16(), "multipart: invalid Content-Length: %q", value)
			}
			p.contentLength = n
			haveLength = true
		case "X-LT-Timestamp":
			ts, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return rerr.Newf(rerr.ProtocolError.Uint16(), "multipart: invalid X-LT-Timestamp: %q", value)
			}
			p.timestamp = ts
		}
	}

	if !haveLength {
		return rerr.New(rerr.ProtocolError.Uint16(), "multipart: missing Content-Length")
	}

	p.state = HeaderComplete
	return nil
}

// Encode builds the wire bytes for a single part, matching the layout
// streamer's send_multipart writes into each client's ring.
func Encode(payload []byte, mimeType string, timestamp float64) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\r\n", Boundary)
	fmt.Fprintf(&buf, "Content-Type: %s\r\n", mimeType)
	fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(payload))
	fmt.Fprintf(&buf, "X-LT-Timestamp: %f\r\n", timestamp)
	buf.WriteString("\r\n")
	buf.Write(payload)
	return buf.Bytes()
}

func splitCRLF(s string) []string {
	var out []string
	for _, line := range bytes.Split([]byte(s), []byte("\r\n")) {
		out = append(out, string(line))
	}
	return out
}

func cutHeader(line string) (key, value string, ok bool) {
	i := bytes.IndexByte([]byte(line), ':')
	if i < 0 {
		return "", "", false
	}
	key = line[:i]
	value = line[i+1:]
	for len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	return key, value, true
}
