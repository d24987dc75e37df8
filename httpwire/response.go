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

package httpwire

import (
	"bufio"
	"fmt"
	"io"
	"net/textproto"
	"sort"
	"strconv"
	"strings"

	rerr "rcom/rerrors"
)

// Response is a status line, headers, and body a service handler builds
// and httpwire writes out.
type Response struct {
	Status int
	Header textproto.MIMEHeader
	Body   []byte
}

// NewResponse returns a 200 OK response with an empty header set.
func NewResponse() *Response {
	return &Response{Status: 200, Header: textproto.MIMEHeader{}}
}

// SetHeader sets a header, replacing any existing value.
func (r *Response) SetHeader(key, value string) *Response {
	r.Header.Set(key, value)
	return r
}

// SetBody sets the body and its Content-Type.
func (r *Response) SetBody(body []byte, contentType string) *Response {
	r.Body = body
	r.Header.Set("Content-Type", contentType)
	return r
}

var statusText = map[int]string{
	200: "OK",
	400: "Bad Request",
	404: "Not Found",
	409: "Conflict",
	500: "Internal Server Error",
}

// WriteTo writes the status line, headers (Content-Length computed from
// Body, headers sorted for deterministic output), a blank line, and the
// body to w.
func (r *Response) WriteTo(w *bufio.Writer) error {
	text := statusText[r.Status]
	if text == "" {
		text = "Status"
	}

	if _, err := fmt.Fprintf(w, "HTTP/1.1 %d %s\r\n", r.Status, text); err != nil {
		return err
	}

	r.Header.Set("Content-Length", fmt.Sprintf("%d", len(r.Body)))

	keys := make([]string, 0, len(r.Header))
	for k := range r.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range r.Header[k] {
			if _, err := fmt.Fprintf(w, "%s: %s\r\n", k, v); err != nil {
				return err
			}
		}
	}

	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}

	if _, err := w.Write(r.Body); err != nil {
		return err
	}

	return w.Flush()
}

// WriteChunkedHeader writes a status line, the given headers, and
// Transfer-Encoding: chunked, without a body - used to begin a streaming
// response (e.g. the streamer's multipart body).
func WriteChunkedHeader(w io.Writer, status int, header textproto.MIMEHeader) error {
	bw := bufio.NewWriter(w)

	text := statusText[status]
	if text == "" {
		text = "Status"
	}
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, text); err != nil {
		return err
	}

	header.Set("Transfer-Encoding", "chunked")

	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range header[k] {
			if _, err := fmt.Fprintf(bw, "%s: %s\r\n", k, v); err != nil {
				return err
			}
		}
	}

	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}

	return bw.Flush()
}

// WriteChunk writes one HTTP/1.1 chunked-transfer-encoding chunk: the
// size in hex, CRLF, the data, CRLF. A zero-length data writes the
// terminating chunk that ends the response.
func WriteChunk(w io.Writer, data []byte) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%x\r\n", len(data)); err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := bw.Write(data); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// ResponseHead is a parsed status line and headers, without consuming
// any body - the client-side counterpart to Request, used to read a
// streamer's chunked multipart reply.
type ResponseHead struct {
	Status int
	Header textproto.MIMEHeader
}

// ReadResponseHead reads a status line and headers from r, matching the
// status-line parsing streamerlink needs before it switches to
// dechunking the body with a ChunkReader.
func ReadResponseHead(r *bufio.Reader) (*ResponseHead, error) {
	tp := textproto.NewReader(r)

	line, err := tp.ReadLine()
	if err != nil {
		return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: reading status line: %v", err)
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: malformed status line: %q", line)
	}

	status, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: malformed status code: %q", parts[1])
	}

	hdr, err := tp.ReadMIMEHeader()
	if err != nil && len(hdr) == 0 {
		return nil, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: reading response headers: %v", err)
	}

	return &ResponseHead{Status: status, Header: hdr}, nil
}

// ChunkReader is an io.Reader that dechunks an HTTP/1.1
// Transfer-Encoding: chunked body on the fly, returning io.EOF once the
// terminating zero-length chunk is read.
type ChunkReader struct {
	r     *bufio.Reader
	tp    *textproto.Reader
	left  int
	ended bool
}

// NewChunkReader wraps r, which must be positioned right after the
// headers of a chunked response.
func NewChunkReader(r *bufio.Reader) *ChunkReader {
	return &ChunkReader{r: r, tp: textproto.NewReader(r)}
}

// Read implements io.Reader, transparently advancing across chunk
// boundaries.
func (c *ChunkReader) Read(p []byte) (int, error) {
	if c.ended {
		return 0, io.EOF
	}

	if c.left == 0 {
		line, err := c.tp.ReadLine()
		if err != nil {
			return 0, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: reading chunk size: %v", err)
		}

		size, err := strconv.ParseInt(strings.TrimSpace(line), 16, 64)
		if err != nil {
			return 0, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: malformed chunk size: %q", line)
		}

		if size == 0 {
			c.ended = true
			return 0, io.EOF
		}
		c.left = int(size)
	}

	n := len(p)
	if n > c.left {
		n = c.left
	}

	read, err := io.ReadFull(c.r, p[:n])
	if err != nil {
		return read, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: reading chunk data: %v", err)
	}
	c.left -= read

	if c.left == 0 {
		if _, err := c.tp.ReadLine(); err != nil { // trailing CRLF
			return read, rerr.Newf(rerr.ProtocolError.Uint16(), "httpwire: reading chunk terminator: %v", err)
		}
	}

	return read, nil
}
