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

// Package datahub is the server side of a UDP pub-sub pair: one socket
// shared by every subscribed datalink address, a reader goroutine
// dispatching inbound datagrams to onData, and a broadcast goroutine
// repeatedly driving a user-supplied producer.
package datahub

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"rcom/addr"
	"rcom/packet"
	"rcom/rctx"
	rerr "rcom/rerrors"
	"rcom/rlog"
)

// OnData is invoked for each datagram received from a subscribed link. It
// must not block.
type OnData func(hub *Datahub, link addr.Address, pkt *packet.Packet)

// OnBroadcast is invoked repeatedly by the broadcast goroutine; it is
// expected to sleep or block on its own work queue when it has nothing to
// send, since the hub drives it in a tight loop otherwise.
type OnBroadcast func(hub *Datahub)

// Datahub owns one UDP socket and the set of datalink addresses currently
// subscribed to it.
type Datahub struct {
	conn  *net.UDPConn
	local addr.Address

	mu    sync.Mutex
	links map[addr.Address]uint32 // address -> next seqnum to stamp

	onData      OnData
	onBroadcast OnBroadcast
	log         rlog.Logger
}

// New opens a UDP socket on an ephemeral port. If onData is non-nil, a
// reader goroutine dispatches inbound datagrams from subscribed links. If
// onBroadcast is non-nil, a pacer goroutine invokes it in a loop. Both
// goroutines are bound to rt's lifetime.
func New(rt rctx.Runtime, log rlog.Logger, onData OnData, onBroadcast OnBroadcast) (*Datahub, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, rerr.Newf(rerr.NetworkUnreachable.Uint16(), "datahub: listen: %v", err)
	}

	local, err := fromUDPAddr(conn.LocalAddr())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	h := &Datahub{
		conn:        conn,
		local:       local,
		links:       make(map[addr.Address]uint32),
		onData:      onData,
		onBroadcast: onBroadcast,
		log:         log,
	}

	group, ctx := errgroup.WithContext(rt)
	if onData != nil {
		group.Go(func() error {
			h.runReader(ctx)
			return nil
		})
	}
	if onBroadcast != nil {
		group.Go(func() error {
			h.runBroadcast(ctx)
			return nil
		})
	}

	return h, nil
}

// Addr returns the hub's own bound address.
func (h *Datahub) Addr() addr.Address {
	return h.local
}

// AddLink subscribes a, seeding its per-link sequence counter from the
// current time. AddLink is a no-op if a is already subscribed.
func (h *Datahub) AddLink(a addr.Address) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.links[a]; ok {
		return
	}
	h.links[a] = uint32(time.Now().UnixMicro())
}

// RemoveLink unsubscribes a. It is a no-op if a is not subscribed.
func (h *Datahub) RemoveLink(a addr.Address) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.links, a)
}

// Links returns a snapshot of the currently subscribed addresses.
func (h *Datahub) Links() []addr.Address {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]addr.Address, 0, len(h.links))
	for a := range h.links {
		out = append(out, a)
	}
	return out
}

// Send stamps the current time and the link's next sequence number, and
// emits one datagram to link. It returns an error iff the send fails; the
// link's subscription is left untouched either way.
func (h *Datahub) Send(link addr.Address, data []byte) error {
	h.mu.Lock()
	seq, ok := h.links[link]
	if ok {
		h.links[link] = seq + 1
	}
	h.mu.Unlock()

	return h.sendTo(link, seq, data)
}

func (h *Datahub) sendTo(to addr.Address, seq uint32, data []byte) error {
	p := packet.New()
	p.SetSeqnum(seq)
	p.SetTimestampNow()
	p.SetPayload(data)

	udpAddr := &net.UDPAddr{IP: net.ParseIP(to.IP()), Port: int(to.Port())}
	if _, err := h.conn.WriteToUDP(p.Bytes(), udpAddr); err != nil {
		return rerr.Newf(rerr.NetworkUnreachable.Uint16(), "datahub: send to %s: %v", to, err)
	}
	return nil
}

// Broadcast sends data to every subscribed link except exclude. A send
// failure on a given link removes that link from the hub's set; it does
// not abort the rest of the broadcast.
func (h *Datahub) Broadcast(exclude addr.Address, data []byte) {
	h.mu.Lock()
	targets := make(map[addr.Address]uint32, len(h.links))
	for a, seq := range h.links {
		if a == exclude {
			continue
		}
		targets[a] = seq
		h.links[a] = seq + 1
	}
	h.mu.Unlock()

	var failed []addr.Address
	for a, seq := range targets {
		if err := h.sendTo(a, seq, data); err != nil {
			if h.log != nil {
				h.log.Warning("datahub: broadcast to %s failed, dropping link: %v", a, err)
			}
			failed = append(failed, a)
		}
	}

	if len(failed) == 0 {
		return
	}

	h.mu.Lock()
	for _, a := range failed {
		delete(h.links, a)
	}
	h.mu.Unlock()
}

func (h *Datahub) runReader(ctx context.Context) {
	buf := make([]byte, packet.MaxSize)
	for {
		select {
		case <-ctx.Done():
			_ = h.conn.Close()
			return
		default:
		}

		if err := h.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond)); err != nil {
			return
		}

		n, from, err := h.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}

		sender, err := fromUDPAddr(from)
		if err != nil {
			continue
		}

		h.mu.Lock()
		_, subscribed := h.links[sender]
		h.mu.Unlock()
		if !subscribed {
			if h.log != nil {
				h.log.Debug("datahub: dropping datagram from unsubscribed %s", sender)
			}
			continue
		}

		p := packet.New()
		if err := p.UnmarshalBytes(buf[:n]); err != nil {
			if h.log != nil {
				h.log.Warning("datahub: dropping malformed datagram from %s: %v", sender, err)
			}
			continue
		}

		h.onData(h, sender, p)
	}
}

func (h *Datahub) runBroadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		h.onBroadcast(h)
	}
}

// Close releases the underlying UDP socket. Reader and broadcast
// goroutines, if any, observe the next failed read or ctx cancellation and
// exit.
func (h *Datahub) Close() error {
	return h.conn.Close()
}

func fromUDPAddr(a net.Addr) (addr.Address, error) {
	ua, ok := a.(*net.UDPAddr)
	if !ok {
		return addr.Zero, rerr.Newf(rerr.Internal.Uint16(), "datahub: unexpected address type %T", a)
	}
	ip := ua.IP.To4()
	if ip == nil {
		ip = net.IPv4(127, 0, 0, 1).To4()
	}
	return addr.New(ip.String(), ua.Port)
}
