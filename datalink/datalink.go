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

// Package datalink is the client side of a UDP pub-sub pair: one socket,
// one peer datahub address, one optional background reader. A proxy sets
// and clears the peer address as it learns of a matching hub appearing or
// disappearing on the registry.
package datalink

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"rcom/addr"
	ratomic "rcom/atomic"
	"rcom/packet"
	"rcom/rctx"
	rerr "rcom/rerrors"
	"rcom/rlog"
)

// OnData is invoked for each datagram received once a reader goroutine is
// running. It must not block - a slow handler stalls the reader for every
// subsequent datagram.
type OnData func(link *Datalink, pkt *packet.Packet)

// Datalink owns a UDP socket and, optionally, the address of a single peer
// datahub. Send fails with rerrors.NetworkUnreachable until a peer address
// has been set.
type Datalink struct {
	conn  *net.UDPConn
	local addr.Address

	mu     sync.RWMutex
	remote addr.Address

	seq ratomic.Value[uint32]

	onData OnData
	log    rlog.Logger
}

// New opens a UDP socket on an ephemeral port and, if onData is non-nil,
// starts a background reader goroutine bound to rt's lifetime.
func New(rt rctx.Runtime, log rlog.Logger, onData OnData) (*Datalink, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, rerr.Newf(rerr.NetworkUnreachable.Uint16(), "datalink: listen: %v", err)
	}

	local, err := fromUDPAddr(conn.LocalAddr())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	l := &Datalink{
		conn:   conn,
		local:  local,
		onData: onData,
		log:    log,
		seq:    ratomic.NewValue[uint32](),
	}
	l.seq.Store(uint32(time.Now().UnixMicro()))

	if onData != nil {
		group, ctx := errgroup.WithContext(rt)
		group.Go(func() error {
			l.runReader(ctx)
			return nil
		})
	}

	return l, nil
}

// Addr returns this link's own local address.
func (l *Datalink) Addr() addr.Address {
	return l.local
}

// RemoteAddr returns the peer datahub address, or addr.Zero if unset.
func (l *Datalink) RemoteAddr() addr.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.remote
}

// SetRemoteAddr records the peer datahub address a proxy resolved.
func (l *Datalink) SetRemoteAddr(a addr.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remote = a
}

// ClearRemoteAddr drops the peer address, as when a proxy learns the hub
// went away. Subsequent Send calls fail until SetRemoteAddr runs again.
func (l *Datalink) ClearRemoteAddr() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remote = addr.Zero
}

// Send stamps the current time and sequence number, and writes one
// datagram to the configured peer. It fails with rerrors.NetworkUnreachable
// if no peer address is set.
func (l *Datalink) Send(data []byte) error {
	remote := l.RemoteAddr()
	if remote.IsZero() {
		return rerr.New(rerr.NetworkUnreachable.Uint16(), "datalink: send: unconnected")
	}
	return l.sendTo(remote, data)
}

func (l *Datalink) sendTo(to addr.Address, data []byte) error {
	p := packet.New()
	p.SetSeqnum(l.nextSeqnum())
	p.SetTimestampNow()
	p.SetPayload(data)

	udpAddr := &net.UDPAddr{IP: net.ParseIP(to.IP()), Port: int(to.Port())}
	if _, err := l.conn.WriteToUDP(p.Bytes(), udpAddr); err != nil {
		return rerr.Newf(rerr.NetworkUnreachable.Uint16(), "datalink: send to %s: %v", to, err)
	}
	return nil
}

func (l *Datalink) nextSeqnum() uint32 {
	n := l.seq.Load()
	l.seq.Store(n + 1)
	return n
}

// Read blocks up to timeout for the next datagram. It must not be used
// concurrently with a registered OnData reader goroutine.
func (l *Datalink) Read(timeout time.Duration) (*packet.Packet, error) {
	if err := l.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, rerr.Newf(rerr.Internal.Uint16(), "datalink: set read deadline: %v", err)
	}

	buf := make([]byte, packet.MaxSize)
	n, _, err := l.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, rerr.New(rerr.Timeout.Uint16(), "datalink: read: timed out")
		}
		return nil, rerr.Newf(rerr.NetworkUnreachable.Uint16(), "datalink: read: %v", err)
	}

	p := packet.New()
	if err := p.UnmarshalBytes(buf[:n]); err != nil {
		return nil, err
	}
	return p, nil
}

func (l *Datalink) runReader(ctx context.Context) {
	buf := make([]byte, packet.MaxSize)
	for {
		select {
		case <-ctx.Done():
			_ = l.conn.Close()
			return
		default:
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond)); err != nil {
			return
		}

		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}

		p := packet.New()
		if err := p.UnmarshalBytes(buf[:n]); err != nil {
			if l.log != nil {
				l.log.Warning("datalink: dropping malformed datagram: %v", err)
			}
			continue
		}

		l.onData(l, p)
	}
}

// Close releases the underlying UDP socket. A reader goroutine, if any,
// observes the next read failure and exits.
func (l *Datalink) Close() error {
	return l.conn.Close()
}

func fromUDPAddr(a net.Addr) (addr.Address, error) {
	ua, ok := a.(*net.UDPAddr)
	if !ok {
		return addr.Zero, rerr.Newf(rerr.Internal.Uint16(), "datalink: unexpected local address type %T", a)
	}
	ip := ua.IP.To4()
	if ip == nil {
		ip = net.IPv4(127, 0, 0, 1).To4()
	}
	return addr.New(ip.String(), ua.Port)
}
