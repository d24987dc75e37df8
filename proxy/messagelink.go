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

package proxy

import (
	"encoding/json"
	"sync"

	"rcom/messagelink"
	rerr "rcom/rerrors"
	"rcom/rlog"
)

// OnMessage is invoked for each inbound JSON message once a Messagelink is
// connected to a hub.
type OnMessage func(ml *Messagelink, msg json.RawMessage)

// Messagelink is a local messagelink endpoint in the sense of spec.md
// §4.10: unlike messagelink.Link (which dials a known address once),
// a Messagelink starts out unconnected and is pointed at a hub address
// by the Proxy once a matching messagehub registers - the same
// connect/disconnect/replace sequencing streamerlink.Streamerlink uses
// for its own wiring target.
type Messagelink struct {
	onMessage OnMessage
	log       rlog.Logger

	mu        sync.Mutex
	link      *messagelink.Link
	connected bool
	done      chan struct{}
}

func newMessagelink(onMessage OnMessage, log rlog.Logger) *Messagelink {
	return &Messagelink{onMessage: onMessage, log: log}
}

// Connected reports whether a hub connection is currently established.
func (m *Messagelink) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// LocalAddr returns the local side of the current connection, or "" if
// not connected. The Proxy pushes this back to the registry via
// update-address once a connect succeeds.
func (m *Messagelink) LocalAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.link == nil {
		return ""
	}
	return m.link.LocalAddr()
}

// SendObj marshals v and sends it over the current connection.
func (m *Messagelink) SendObj(v any) error {
	m.mu.Lock()
	link := m.link
	m.mu.Unlock()

	if link == nil {
		return rerr.New(rerr.NetworkUnreachable.Uint16(), "proxy: messagelink: not connected")
	}
	return link.SendObj(v)
}

// Connect tears down any existing connection and dials addr.
func (m *Messagelink) Connect(addr string) error {
	m.Disconnect()

	link, err := messagelink.Dial(addr, m.log)
	if err != nil {
		return err
	}

	done := make(chan struct{})

	m.mu.Lock()
	m.link = link
	m.connected = true
	m.done = done
	m.mu.Unlock()

	go m.run(link, done)

	return nil
}

// Disconnect closes any current connection and waits for its reader to exit.
func (m *Messagelink) Disconnect() {
	m.mu.Lock()
	link := m.link
	done := m.done
	m.mu.Unlock()

	if link != nil {
		_ = link.Close(1000)
	}
	if done != nil {
		<-done
	}
}

func (m *Messagelink) run(link *messagelink.Link, done chan struct{}) {
	defer close(done)
	defer func() {
		_ = link.Close(1000)
		m.mu.Lock()
		if m.link == link {
			m.link = nil
			m.connected = false
			m.done = nil
		}
		m.mu.Unlock()
	}()

	for {
		msg, err := link.ReadMessage()
		if err != nil {
			if m.log != nil {
				m.log.Debug("proxy: messagelink: reader exiting: %v", err)
			}
			return
		}
		if m.onMessage != nil {
			m.onMessage(m, msg)
		}
	}
}
