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

// Package messagehub is the server side of a WebSocket pub-sub pair: a
// TCP listener accepting one connection per client, a hand-rolled RFC
// 6455 upgrade handshake, and a Broadcast that fans a message out to
// every currently connected messagelink.Link except an optional
// excluded one.
package messagehub

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"

	ratomic "rcom/atomic"
	"rcom/httpwire"
	"rcom/messagelink"
	rerr "rcom/rerrors"
	"rcom/rlog"
	"rcom/wsframe"
)

// OnConnect is invoked once per accepted connection, after the upgrade
// handshake succeeds and before the link is registered in the hub. A
// non-nil error closes the link instead of registering it.
type OnConnect func(hub *Messagehub, req *httpwire.Request, link *messagelink.Link) error

// OnMessage is invoked for every inbound JSON message on any connected
// link.
type OnMessage func(hub *Messagehub, link *messagelink.Link, msg json.RawMessage)

// Messagehub owns a TCP listener and the set of links accepted on it.
type Messagehub struct {
	ln  net.Listener
	log rlog.Logger

	onConnect OnConnect
	onMessage OnMessage

	shutdown ratomic.Value[bool]

	mu    sync.Mutex
	links map[*messagelink.Link]struct{}

	wg sync.WaitGroup
}

// New binds a TCP listener on addr ("host:port", or ":0" for an
// ephemeral port) and starts the accept loop in a background
// goroutine. onConnect may be nil; onMessage may be nil if the hub only
// ever broadcasts and never reacts to inbound messages.
func New(addr string, log rlog.Logger, onConnect OnConnect, onMessage OnMessage) (*Messagehub, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, rerr.Newf(rerr.NetworkUnreachable.Uint16(), "messagehub: listen %s: %v", addr, err)
	}

	h := &Messagehub{
		ln:        ln,
		log:       log,
		onConnect: onConnect,
		onMessage: onMessage,
		shutdown:  ratomic.NewValue[bool](),
		links:     make(map[*messagelink.Link]struct{}),
	}

	h.wg.Add(1)
	go h.acceptLoop()

	return h, nil
}

// Addr returns the listener's bound address.
func (h *Messagehub) Addr() net.Addr {
	return h.ln.Addr()
}

func (h *Messagehub) acceptLoop() {
	defer h.wg.Done()

	for {
		conn, err := h.ln.Accept()
		if err != nil {
			if !h.shutdown.Load() && h.log != nil {
				h.log.Warning("messagehub: accept: %v", err)
			}
			return
		}

		h.wg.Add(1)
		go h.handleConn(conn)
	}
}

func (h *Messagehub) handleConn(conn net.Conn) {
	defer h.wg.Done()

	br := bufio.NewReader(conn)
	req, err := httpwire.ParseRequest(br)
	if err != nil {
		if h.log != nil {
			h.log.Warning("messagehub: %s: reading handshake: %v", conn.RemoteAddr(), err)
		}
		_ = conn.Close()
		return
	}

	if !req.IsWebSocketUpgrade() {
		if h.log != nil {
			h.log.Warning("messagehub: %s: not a websocket upgrade", conn.RemoteAddr())
		}
		_ = conn.Close()
		return
	}

	bw := bufio.NewWriter(conn)
	if err := wsframe.WriteServerHandshake(bw, req.HeaderValue("Sec-WebSocket-Key")); err != nil {
		if h.log != nil {
			h.log.Warning("messagehub: %s: handshake: %v", conn.RemoteAddr(), err)
		}
		_ = conn.Close()
		return
	}

	link := messagelink.New(conn, br, messagelink.RoleServer, h.log)

	if h.onConnect != nil {
		if err := h.onConnect(h, req, link); err != nil {
			_ = link.Close(1008)
			return
		}
	}

	h.addLink(link)
	defer h.removeLink(link)

	for {
		msg, err := link.ReadMessage()
		if err != nil {
			return
		}
		if h.onMessage != nil {
			h.onMessage(h, link, msg)
		}
	}
}

func (h *Messagehub) addLink(link *messagelink.Link) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.links[link] = struct{}{}
}

func (h *Messagehub) removeLink(link *messagelink.Link) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.links, link)
}

// Links returns a snapshot of the currently connected links.
func (h *Messagehub) Links() []*messagelink.Link {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*messagelink.Link, 0, len(h.links))
	for l := range h.links {
		out = append(out, l)
	}
	return out
}

// Broadcast sends v, JSON-encoded, to every connected link except
// exclude (which may be nil to address all of them). A send failure on
// a given link removes it from the hub's set.
func (h *Messagehub) Broadcast(exclude *messagelink.Link, v any) {
	h.mu.Lock()
	targets := make([]*messagelink.Link, 0, len(h.links))
	for l := range h.links {
		if l == exclude {
			continue
		}
		targets = append(targets, l)
	}
	h.mu.Unlock()

	var failed []*messagelink.Link
	for _, l := range targets {
		if err := l.SendObj(v); err != nil {
			if h.log != nil {
				h.log.Warning("messagehub: broadcast to %s failed, dropping link: %v", l.RemoteAddr(), err)
			}
			failed = append(failed, l)
		}
	}

	if len(failed) == 0 {
		return
	}

	h.mu.Lock()
	for _, l := range failed {
		delete(h.links, l)
	}
	h.mu.Unlock()
}

// Close stops the accept loop, closes every connected link, and waits
// for all connection-handling goroutines to exit.
func (h *Messagehub) Close() error {
	h.shutdown.Store(true)
	err := h.ln.Close()

	h.mu.Lock()
	for l := range h.links {
		_ = l.Close(1001)
	}
	h.mu.Unlock()

	h.wg.Wait()
	return err
}
