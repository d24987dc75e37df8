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

// Package streamerlink is the HTTP multipart pull side of a
// streamer/streamerlink pair: it dials a streamer's /stream.html
// route, issues a Connection: close GET request, and dechunks the
// reply through a multipart.Parser, invoking OnData once per
// completed part. SetRemoteAddr mirrors the connect/reconnect
// behavior of a hand-set remote address, including autoconnect.
package streamerlink

import (
	"bufio"
	"net"
	"sync"

	"rcom/httpwire"
	"rcom/multipart"
	rerr "rcom/rerrors"
	"rcom/rlog"
)

// OnData is invoked once per completed multipart part. A returned
// error stops the reader and closes the connection.
type OnData func(link *Streamerlink, part multipart.Part) error

// Streamerlink pulls a multipart stream from a single remote address
// at a time. It is safe for concurrent use; Connect/Disconnect/
// SetRemoteAddr all serialize on an internal mutex exactly as the
// original implementation's connect/disconnect pair did.
type Streamerlink struct {
	onData      OnData
	autoconnect bool
	log         rlog.Logger

	mu         sync.Mutex
	remoteAddr string
	conn       net.Conn
	running    bool
	done       chan struct{}
}

// New returns a Streamerlink with no remote address set. If
// autoconnect is true, SetRemoteAddr immediately connects once a
// non-empty address is given.
func New(onData OnData, autoconnect bool, log rlog.Logger) *Streamerlink {
	return &Streamerlink{onData: onData, autoconnect: autoconnect, log: log}
}

// RemoteAddr returns the currently configured remote address, or "" if
// none has been set.
func (l *Streamerlink) RemoteAddr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remoteAddr
}

// Connected reports whether a reader goroutine currently owns a live
// connection.
func (l *Streamerlink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// SetRemoteAddr stops any running connection, replaces the remote
// address, and - if this link was built with autoconnect - connects to
// the new address immediately.
func (l *Streamerlink) SetRemoteAddr(addr string) error {
	l.stop()

	l.mu.Lock()
	l.remoteAddr = addr
	l.mu.Unlock()

	if addr != "" && l.autoconnect {
		return l.Connect()
	}
	return nil
}

// Connect stops any running connection, dials the current remote
// address, and starts the reader goroutine.
func (l *Streamerlink) Connect() error {
	l.stop()

	l.mu.Lock()
	addr := l.remoteAddr
	l.mu.Unlock()

	if addr == "" {
		return rerr.New(rerr.InvalidArgument.Uint16(), "streamerlink: no remote address")
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return rerr.Newf(rerr.NetworkUnreachable.Uint16(), "streamerlink: dial %s: %v", addr, err)
	}

	done := make(chan struct{})

	l.mu.Lock()
	l.conn = conn
	l.running = true
	l.done = done
	l.mu.Unlock()

	go l.run(conn, addr, done)

	return nil
}

// Disconnect stops the reader goroutine and closes the connection, if
// any.
func (l *Streamerlink) Disconnect() error {
	l.stop()
	return nil
}

// stop closes the current connection, if any, and waits for its
// reader goroutine to exit.
func (l *Streamerlink) stop() {
	l.mu.Lock()
	conn := l.conn
	done := l.done
	l.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if done != nil {
		<-done
	}
}

func (l *Streamerlink) run(conn net.Conn, addr string, done chan struct{}) {
	defer close(done)
	defer func() {
		_ = conn.Close()
		l.mu.Lock()
		if l.conn == conn {
			l.conn = nil
			l.running = false
			l.done = nil
		}
		l.mu.Unlock()
	}()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	request := "GET /stream.html HTTP/1.1\r\nHost: " + host + "\r\nConnection: close\r\n\r\n"
	if _, err := conn.Write([]byte(request)); err != nil {
		if l.log != nil {
			l.log.Warning("streamerlink: %s: sending request: %v", addr, err)
		}
		return
	}

	br := bufio.NewReader(conn)
	head, err := httpwire.ReadResponseHead(br)
	if err != nil {
		if l.log != nil {
			l.log.Warning("streamerlink: %s: reading response: %v", addr, err)
		}
		return
	}
	if head.Status != 200 {
		if l.log != nil {
			l.log.Warning("streamerlink: %s: unexpected status %d", addr, head.Status)
		}
		return
	}

	parser := multipart.New()
	stopped := false
	parser.OnPart = func(p multipart.Part) {
		if l.onData == nil || stopped {
			return
		}
		if err := l.onData(l, p); err != nil {
			if l.log != nil {
				l.log.Debug("streamerlink: %s: onData stopped the reader: %v", addr, err)
			}
			stopped = true
			_ = conn.Close()
		}
	}

	cr := httpwire.NewChunkReader(br)
	buf := make([]byte, 16384)
	for !stopped {
		n, err := cr.Read(buf)
		if n > 0 {
			if werr := parser.Write(buf[:n]); werr != nil {
				if l.log != nil {
					l.log.Warning("streamerlink: %s: parsing body: %v", addr, werr)
				}
				return
			}
		}
		if err != nil {
			return
		}
	}
}
