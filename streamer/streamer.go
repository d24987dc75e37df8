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

// Package streamer is the HTTP multipart push side of a
// streamer/streamerlink pair: a plain TCP listener serving an index
// page, an index.json directory listing, and a /stream.html route that
// upgrades to a chunked multipart/x-mixed-replace body. Every streaming
// client gets its own ring buffer; SendMultipart fans a part out to
// every client's ring and drops it for whichever client's ring does
// not have room, rather than blocking the producer.
package streamer

import (
	"bufio"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"time"

	ratomic "rcom/atomic"
	"rcom/buffer"
	"rcom/httpwire"
	"rcom/multipart"
	rerr "rcom/rerrors"
	"rcom/rlog"
)

// clientBufferSize matches the original implementation's 1 MiB
// per-client ring.
const clientBufferSize = 1 * 1024 * 1024

// OnClient is invoked once a client requests /stream.html, before its
// worker goroutine starts. A non-nil error refuses the stream.
type OnClient func(s *Streamer, req *httpwire.Request) error

// OnBroadcast is invoked repeatedly by the broadcast pacer goroutine,
// mirroring datahub.OnBroadcast: it is expected to block or sleep on
// its own schedule.
type OnBroadcast func(s *Streamer)

// Streamer owns one HTTP listener, a mime type for its parts, and the
// set of currently streaming clients.
type Streamer struct {
	ln       net.Listener
	name     string
	topic    string
	mimeType string
	log      rlog.Logger

	onClient    OnClient
	onBroadcast OnBroadcast
	onDrop      func()

	shutdown ratomic.Value[bool]

	mu      sync.Mutex
	clients map[*client]struct{}

	wg sync.WaitGroup
}

type client struct {
	conn net.Conn
	ring *buffer.Ring
}

// New binds a TCP listener on addr and starts the accept loop (and, if
// onBroadcast is non-nil, a broadcast pacer) in background goroutines.
func New(addr, name, topic, mimeType string, log rlog.Logger, onClient OnClient, onBroadcast OnBroadcast) (*Streamer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, rerr.Newf(rerr.NetworkUnreachable.Uint16(), "streamer: listen %s: %v", addr, err)
	}

	s := &Streamer{
		ln:          ln,
		name:        name,
		topic:       topic,
		mimeType:    mimeType,
		log:         log,
		onClient:    onClient,
		onBroadcast: onBroadcast,
		shutdown:    ratomic.NewValue[bool](),
		clients:     make(map[*client]struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	if onBroadcast != nil {
		s.wg.Add(1)
		go s.broadcastLoop()
	}

	return s, nil
}

// Addr returns the listener's bound address.
func (s *Streamer) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *Streamer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.shutdown.Load() && s.log != nil {
				s.log.Warning("streamer: accept: %v", err)
			}
			return
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Streamer) handleConn(conn net.Conn) {
	defer s.wg.Done()

	br := bufio.NewReader(conn)
	req, err := httpwire.ParseRequest(br)
	if err != nil {
		_ = conn.Close()
		return
	}

	switch req.URI {
	case "/", "/index.html":
		s.sendIndexHTML(conn)
		_ = conn.Close()
	case "/index.json":
		s.sendIndexJSON(conn)
		_ = conn.Close()
	case "/stream.html":
		s.startStream(conn, req)
	default:
		resp := httpwire.NewResponse()
		resp.Status = 400
		_ = resp.WriteTo(bufio.NewWriter(conn))
		_ = conn.Close()
	}
}

func (s *Streamer) sendIndexHTML(conn net.Conn) {
	body := fmt.Sprintf(
		"<!DOCTYPE html>\n<html lang=\"en\">\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n"+
			"<body><a href=\"http://%s/\">%s:%s</a></body>\n</html>\n",
		s.name, s.ln.Addr().String(), s.name, s.topic)

	resp := httpwire.NewResponse().SetBody([]byte(body), "text/html")
	_ = resp.WriteTo(bufio.NewWriter(conn))
}

func (s *Streamer) sendIndexJSON(conn net.Conn) {
	body := fmt.Sprintf(
		`{"exports": [{"name": %q, "topic": %q, "uri": "http://%s/"}]}`,
		s.name, s.topic, s.ln.Addr().String())

	resp := httpwire.NewResponse().SetBody([]byte(body), "application/json")
	_ = resp.WriteTo(bufio.NewWriter(conn))
}

func (s *Streamer) startStream(conn net.Conn, req *httpwire.Request) {
	if s.onClient != nil {
		if err := s.onClient(s, req); err != nil {
			resp := httpwire.NewResponse()
			resp.Status = 500
			_ = resp.WriteTo(bufio.NewWriter(conn))
			_ = conn.Close()
			return
		}
	}

	hdr := textproto.MIMEHeader{}
	boundary := strings.TrimPrefix(multipart.Boundary, "--")
	hdr.Set("Content-Type", fmt.Sprintf("multipart/x-mixed-replace; boundary=%s", boundary))
	if err := httpwire.WriteChunkedHeader(conn, 200, hdr); err != nil {
		_ = conn.Close()
		return
	}

	c := &client{conn: conn, ring: buffer.New(clientBufferSize)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runClient(c)
}

func (s *Streamer) runClient(c *client) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		_ = c.conn.Close()
	}()

	buf := make([]byte, 16384)
	for !s.shutdown.Load() {
		n := c.ring.Read(buf)
		if n == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err := httpwire.WriteChunk(c.conn, buf[:n]); err != nil {
			return
		}
	}
}

// HasClients reports whether any client is currently streaming.
func (s *Streamer) HasClients() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients) > 0
}

// ClientCount returns the number of currently streaming clients.
func (s *Streamer) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// SendMultipart encodes payload as one multipart part and appends it to
// every connected client's ring. A client whose ring does not have
// room for the part is skipped for this part; the producer is never
// blocked.
func (s *Streamer) SendMultipart(payload []byte, mimeType string, timestamp float64) {
	encoded := multipart.Encode(payload, mimeType, timestamp)

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		if c.ring.SpaceAvailable() < len(encoded) {
			if s.log != nil {
				s.log.Warning("streamer: dropping part for a slow client, %d bytes pending", c.ring.DataAvailable())
			}
			if s.onDrop != nil {
				s.onDrop()
			}
			continue
		}
		c.ring.Write(encoded)
	}
}

// SetDropHook installs fn to be called once per part dropped for a
// slow client. fn must not block or call back into the streamer.
func (s *Streamer) SetDropHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDrop = fn
}

func (s *Streamer) broadcastLoop() {
	defer s.wg.Done()
	for !s.shutdown.Load() {
		s.onBroadcast(s)
	}
}

// Close stops the accept loop, drops every connected client, and waits
// for all goroutines to exit.
func (s *Streamer) Close() error {
	s.shutdown.Store(true)
	err := s.ln.Close()

	s.mu.Lock()
	for c := range s.clients {
		_ = c.conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}
