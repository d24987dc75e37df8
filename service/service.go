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

// Package service is a classical HTTP/1.1 request/response endpoint: a
// name exposed at "/<name>", one or more named sub-resources each with
// an input/output MIME type and a handler, and a process-wide
// "/service/health" route backed by gopsutil.
package service

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/process"

	ratomic "rcom/atomic"
	"rcom/httpwire"
	rerr "rcom/rerrors"
	"rcom/rlog"
)

// Handler builds a response for one matched export. It receives the
// parsed request and returns the response to write back; a returned
// error yields a 500 response instead.
type Handler func(svc *Service, req *httpwire.Request) (*httpwire.Response, error)

type export struct {
	name            string
	mimeIn, mimeOut string
	handler         Handler
}

// Service owns one TCP listener and a set of named exports.
type Service struct {
	ln   net.Listener
	name string
	log  rlog.Logger

	startedAt time.Time

	shutdown ratomic.Value[bool]

	mu      sync.Mutex
	exports map[string]*export

	wg sync.WaitGroup
}

// New binds a TCP listener on addr under the given service name and
// starts the accept loop in a background goroutine.
func New(addr, name string, log rlog.Logger) (*Service, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, rerr.Newf(rerr.NetworkUnreachable.Uint16(), "service: listen %s: %v", addr, err)
	}

	s := &Service{
		ln:        ln,
		name:      name,
		log:       log,
		startedAt: time.Now(),
		shutdown:  ratomic.NewValue[bool](),
		exports:   make(map[string]*export),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

// Name returns the service's registered name.
func (s *Service) Name() string { return s.name }

// Addr returns the listener's bound address.
func (s *Service) Addr() net.Addr { return s.ln.Addr() }

// Export registers a sub-resource matched by name (either "name" or
// "/name") with its input/output MIME types and handler.
func (s *Service) Export(name, mimeIn, mimeOut string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports[name] = &export{name: name, mimeIn: mimeIn, mimeOut: mimeOut, handler: handler}
}

func (s *Service) lookup(path string) *export {
	trimmed := strings.TrimPrefix(path, "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.exports {
		if e.name == path || e.name == trimmed {
			return e
		}
	}
	return nil
}

func (s *Service) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.shutdown.Load() && s.log != nil {
				s.log.Warning("service: accept: %v", err)
			}
			return
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Service) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() { _ = conn.Close() }()

	br := bufio.NewReader(conn)
	req, err := httpwire.ParseRequest(br)
	if err != nil {
		if s.log != nil {
			s.log.Warning("service: %s: reading request: %v", conn.RemoteAddr(), err)
		}
		return
	}

	var resp *httpwire.Response

	switch {
	case req.URI == "/service/health":
		resp = s.health()
	default:
		e := s.lookup(req.URI)
		if e == nil {
			resp = httpwire.NewResponse()
			resp.Status = 404
			break
		}

		resp, err = e.handler(s, req)
		if err != nil {
			if s.log != nil {
				s.log.Warning("service: %s: handler for %s: %v", conn.RemoteAddr(), e.name, err)
			}
			resp = httpwire.NewResponse()
			resp.Status = 500
		}
	}

	_ = resp.WriteTo(bufio.NewWriter(conn))
}

// health builds the "/service/health" response: this service's name
// and uptime, the host's CPU percentage since the last sample, and this
// process's resident memory, the last two sourced from gopsutil.
func (s *Service) health() *httpwire.Response {
	uptime := time.Since(s.startedAt).Seconds()

	var cpuPercent float64
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}

	var memBytes uint64
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil && info != nil {
			memBytes = info.RSS
		}
	}

	body := fmt.Sprintf(
		`{"name": %q, "uptime_seconds": %f, "cpu_percent": %f, "mem_bytes": %d}`,
		s.name, uptime, cpuPercent, memBytes)

	return httpwire.NewResponse().SetBody([]byte(body), "application/json")
}

// Close stops the accept loop and waits for every in-flight handler to
// finish.
func (s *Service) Close() error {
	s.shutdown.Store(true)
	err := s.ln.Close()
	s.wg.Wait()
	return err
}
