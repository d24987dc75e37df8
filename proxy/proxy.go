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

// Package proxy is the per-process registry mirror and wiring engine of
// spec.md §4.10. It holds a long-lived Messagelink to the central
// Registry, translates Open*/Close* calls into register/unregister
// requests, and reacts to add/remove/update-address events by wiring
// local endpoints to their matching counterparts: a Datalink to the
// Datahub on its topic, a Datahub to every Datalink on its topic, a
// Messagelink to the Messagehub on its topic, and a Streamerlink to the
// Streamer on its topic. Removals invert the same rules.
package proxy

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/go-uuid"

	"rcom/addr"
	"rcom/datahub"
	"rcom/datalink"
	"rcom/messagehub"
	"rcom/messagelink"
	"rcom/rctx"
	rerr "rcom/rerrors"
	"rcom/registry"
	"rcom/rlog"
	"rcom/rmetrics"
	"rcom/service"
	"rcom/streamer"
	"rcom/streamerlink"
)

// Kind names the registry entry types a Proxy can open.
type Kind string

const (
	KindDatalink     Kind = "datalink"
	KindDatahub      Kind = "datahub"
	KindMessagelink  Kind = "messagelink"
	KindMessagehub   Kind = "messagehub"
	KindService      Kind = "service"
	KindStreamer     Kind = "streamer"
	KindStreamerlink Kind = "streamerlink"
)

// readyTimeout bounds the startup list request: if the registry does not
// reply within this window, Open fails the process per spec.md §4.10.
const readyTimeout = 10 * time.Second

// requestTimeout bounds every register/unregister/update-address request
// issued after startup.
const requestTimeout = 5 * time.Second

type wireRequest struct {
	Request string          `json:"request"`
	Entry   *registry.Entry `json:"entry,omitempty"`
	ID      string          `json:"id,omitempty"`
	Addr    string          `json:"addr,omitempty"`
}

type wireEnvelope struct {
	Response string           `json:"response,omitempty"`
	Event    string           `json:"event,omitempty"`
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	List     []registry.Entry `json:"list,omitempty"`
	Entry    registry.Entry   `json:"entry,omitempty"`
	ID       string           `json:"id,omitempty"`
	Addr     string           `json:"addr,omitempty"`
}

// endpointHandle is one local endpoint this process has opened: exactly
// one of the typed fields is set, matching the entry's Type.
type endpointHandle struct {
	entry registry.Entry

	datalink     *datalink.Datalink
	datahub      *datahub.Datahub
	messagelink  *Messagelink
	streamerlink *streamerlink.Streamerlink

	closer func() error
}

// Endpoint is the handle Open* returns for tearing down what it opened.
type Endpoint struct {
	proxy *Proxy
	id    string
}

// Close unregisters the endpoint from the registry (unless standalone)
// and releases its local resources.
func (e *Endpoint) Close() error {
	return e.proxy.closeLocal(e.id)
}

// Proxy is the per-process directory mirror and wiring engine.
type Proxy struct {
	link *messagelink.Link
	log  rlog.Logger

	sendMu sync.Mutex
	respCh chan wireEnvelope

	mu     sync.Mutex
	mirror map[string]registry.Entry
	locals map[string]*endpointHandle

	standalone bool
	metrics    *rmetrics.Metrics
}

// SetMetrics attaches a Prometheus recorder. Passing nil disables
// instrumentation (the default).
func (p *Proxy) SetMetrics(m *rmetrics.Metrics) {
	p.mu.Lock()
	p.metrics = m
	p.mu.Unlock()
}

// Open dials the registry at addr, issues the startup list request, and
// returns once the mirror is populated. It fails if no reply arrives
// within readyTimeout.
func Open(addr string, log rlog.Logger) (*Proxy, error) {
	link, err := messagelink.Dial(addr, log)
	if err != nil {
		return nil, err
	}

	p := &Proxy{
		link:   link,
		log:    log,
		respCh: make(chan wireEnvelope, 16),
		mirror: make(map[string]registry.Entry),
		locals: make(map[string]*endpointHandle),
	}

	go p.readLoop()

	env, err := p.request(wireRequest{Request: "list"}, "list", readyTimeout)
	if err != nil {
		_ = link.Close(1000)
		return nil, err
	}

	p.mu.Lock()
	for _, e := range env.List {
		p.mirror[e.ID] = e
	}
	p.mu.Unlock()

	return p, nil
}

// Standalone returns a Proxy with no registry connection. Every Open*/
// Close* call still constructs and tears down the local transport
// object, but registration and wiring are no-ops, per spec.md §4.10's
// standalone-mode clause.
func Standalone(log rlog.Logger) *Proxy {
	return &Proxy{
		log:        log,
		mirror:     make(map[string]registry.Entry),
		locals:     make(map[string]*endpointHandle),
		standalone: true,
	}
}

// Mirror returns a snapshot of every entry this Proxy currently believes
// is registered, local or remote.
func (p *Proxy) Mirror() []registry.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	list := make([]registry.Entry, 0, len(p.mirror))
	for _, e := range p.mirror {
		list = append(list, e)
	}
	return list
}

func (p *Proxy) readLoop() {
	for {
		msg, err := p.link.ReadMessage()
		if err != nil {
			if p.log != nil {
				p.log.Debug("proxy: registry link closed: %v", err)
			}
			return
		}

		var env wireEnvelope
		if err := json.Unmarshal(msg, &env); err != nil {
			if p.log != nil {
				p.log.Warning("proxy: malformed registry message: %v", err)
			}
			continue
		}

		if env.Event != "" {
			p.applyEvent(env)
			continue
		}
		if env.Response != "" {
			select {
			case p.respCh <- env:
			default:
			}
		}
	}
}

// request serializes one request/response round trip on the registry
// link: only one request is ever outstanding at a time, so the next
// response of the matching kind belongs to this call.
func (p *Proxy) request(req wireRequest, want string, timeout time.Duration) (wireEnvelope, error) {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	if err := p.link.SendObj(req); err != nil {
		return wireEnvelope{}, err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case env := <-p.respCh:
			if env.Response != want {
				continue
			}
			if !env.Success {
				return env, rerr.New(rerr.RegistryConflict.Uint16(), "proxy: "+want+": "+env.Message)
			}
			return env, nil
		case <-deadline.C:
			return wireEnvelope{}, rerr.Newf(rerr.Timeout.Uint16(), "proxy: %s: no reply within %s", want, timeout)
		}
	}
}

func (p *Proxy) applyEvent(env wireEnvelope) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch env.Event {
	case "proxy-add":
		p.mirror[env.Entry.ID] = env.Entry
		p.wireAddLocked(env.Entry)
	case "proxy-remove":
		e, ok := p.mirror[env.ID]
		if !ok {
			return
		}
		delete(p.mirror, env.ID)
		p.wireRemoveLocked(e)
	case "proxy-update-address":
		e, ok := p.mirror[env.ID]
		if !ok {
			return
		}
		old := e
		e.Addr = env.Addr
		p.mirror[env.ID] = e
		p.wireRemoveLocked(old)
		p.wireAddLocked(e)
	}
}

// wireAddLocked wires every local endpoint that matches the newly
// (re)appeared entry e. Called under p.mu.
func (p *Proxy) wireAddLocked(e registry.Entry) {
	for _, h := range p.locals {
		p.wirePair(h, e)
	}
}

// wireRemoveLocked inverts wireAddLocked for an entry that just left.
func (p *Proxy) wireRemoveLocked(e registry.Entry) {
	for _, h := range p.locals {
		p.unwirePair(h, e)
	}
}

// wirePair applies the single wiring rule (if any) that connects local
// handle h to remote/local entry e, per spec.md §4.10's four rules.
func (p *Proxy) wirePair(h *endpointHandle, e registry.Entry) {
	if h.entry.ID == e.ID || h.entry.Topic != e.Topic {
		return
	}

	switch {
	case h.datalink != nil && e.Type == string(KindDatahub):
		a, err := addr.Parse(e.Addr)
		if err == nil {
			h.datalink.SetRemoteAddr(a)
			p.metrics.IncProxyWiredLinks(string(KindDatalink))
		}
	case h.datahub != nil && e.Type == string(KindDatalink):
		a, err := addr.Parse(e.Addr)
		if err == nil {
			h.datahub.AddLink(a)
			p.metrics.IncProxyWiredLinks(string(KindDatahub))
		}
	case h.messagelink != nil && e.Type == string(KindMessagehub):
		if err := h.messagelink.Connect(e.Addr); err == nil {
			id := h.entry.ID
			local := h.messagelink.LocalAddr()
			go p.pushLocalAddr(id, local)
			p.metrics.IncProxyWiredLinks(string(KindMessagelink))
		}
	case h.streamerlink != nil && e.Type == string(KindStreamer):
		if err := h.streamerlink.SetRemoteAddr(e.Addr); err == nil {
			p.metrics.IncProxyWiredLinks(string(KindStreamerlink))
		}
	}
}

// unwirePair inverts wirePair for an entry that just left or moved.
func (p *Proxy) unwirePair(h *endpointHandle, e registry.Entry) {
	if h.entry.ID == e.ID || h.entry.Topic != e.Topic {
		return
	}

	switch {
	case h.datalink != nil && e.Type == string(KindDatahub):
		h.datalink.ClearRemoteAddr()
		p.metrics.DecProxyWiredLinks(string(KindDatalink))
	case h.datahub != nil && e.Type == string(KindDatalink):
		a, err := addr.Parse(e.Addr)
		if err == nil {
			h.datahub.RemoveLink(a)
			p.metrics.DecProxyWiredLinks(string(KindDatahub))
		}
	case h.messagelink != nil && e.Type == string(KindMessagehub):
		h.messagelink.Disconnect()
		p.metrics.DecProxyWiredLinks(string(KindMessagelink))
	case h.streamerlink != nil && e.Type == string(KindStreamer):
		_ = h.streamerlink.SetRemoteAddr("")
		p.metrics.DecProxyWiredLinks(string(KindStreamerlink))
	}
}

// pushLocalAddr reports a Messagelink's freshly dialed local address back
// to the registry, run off the registry reader goroutine to avoid the
// request/readLoop deadlock a synchronous call from applyEvent would cause.
func (p *Proxy) pushLocalAddr(id, addr string) {
	if addr == "" {
		return
	}
	if _, err := p.request(wireRequest{Request: "update-address", ID: id, Addr: addr}, "update-address", requestTimeout); err != nil {
		if p.log != nil {
			p.log.Warning("proxy: pushing back local address for %s: %v", id, err)
		}
	}
}

// registerLocal assigns an id and registers name/topic/kind/addr with the
// registry, or is a no-op in standalone mode.
func (p *Proxy) registerLocal(kind Kind, name, topic, addr string) (registry.Entry, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return registry.Entry{}, rerr.Newf(rerr.Internal.Uint16(), "proxy: generating id: %v", err)
	}

	entry := registry.Entry{ID: id, Name: name, Topic: topic, Type: string(kind), Addr: addr}

	if p.standalone {
		return entry, nil
	}

	if _, err := p.request(wireRequest{Request: "register", Entry: &entry}, "register", requestTimeout); err != nil {
		return registry.Entry{}, err
	}

	p.mu.Lock()
	p.mirror[entry.ID] = entry
	p.mu.Unlock()

	return entry, nil
}

func (p *Proxy) addLocal(h *endpointHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.locals[h.entry.ID] = h
	for _, e := range p.mirror {
		p.wirePair(h, e)
	}
}

func (p *Proxy) closeLocal(id string) error {
	p.mu.Lock()
	h, ok := p.locals[id]
	if ok {
		delete(p.locals, id)
		delete(p.mirror, id)
	}
	p.mu.Unlock()

	if !ok {
		return nil
	}

	if !p.standalone {
		if _, err := p.request(wireRequest{Request: "unregister", ID: id}, "unregister", requestTimeout); err != nil {
			if p.log != nil {
				p.log.Warning("proxy: unregister %s: %v", id, err)
			}
		}
	}

	if h.messagelink != nil {
		h.messagelink.Disconnect()
	}
	if h.closer != nil {
		return h.closer()
	}
	return nil
}

// OpenDatalink constructs a Datalink on topic and wires it to any
// existing or future Datahub sharing that topic.
func (p *Proxy) OpenDatalink(rt rctx.Runtime, log rlog.Logger, name, topic string, onData datalink.OnData) (*datalink.Datalink, *Endpoint, error) {
	dl, err := datalink.New(rt, log, onData)
	if err != nil {
		return nil, nil, err
	}

	entry, err := p.registerLocal(KindDatalink, name, topic, dl.Addr().String())
	if err != nil {
		_ = dl.Close()
		return nil, nil, err
	}

	h := &endpointHandle{entry: entry, datalink: dl, closer: dl.Close}
	p.addLocal(h)

	return dl, &Endpoint{proxy: p, id: entry.ID}, nil
}

// OpenDatahub constructs a Datahub on topic and wires every existing or
// future Datalink sharing that topic into it.
func (p *Proxy) OpenDatahub(rt rctx.Runtime, log rlog.Logger, name, topic string, onData datahub.OnData, onBroadcast datahub.OnBroadcast) (*datahub.Datahub, *Endpoint, error) {
	dh, err := datahub.New(rt, log, onData, onBroadcast)
	if err != nil {
		return nil, nil, err
	}

	entry, err := p.registerLocal(KindDatahub, name, topic, dh.Addr().String())
	if err != nil {
		_ = dh.Close()
		return nil, nil, err
	}

	h := &endpointHandle{entry: entry, datahub: dh, closer: dh.Close}
	p.addLocal(h)

	return dh, &Endpoint{proxy: p, id: entry.ID}, nil
}

// OpenMessagehub constructs a Messagehub on topic, bound to bindAddr.
func (p *Proxy) OpenMessagehub(bindAddr, name, topic string, log rlog.Logger, onConnect messagehub.OnConnect, onMessage messagehub.OnMessage) (*messagehub.Messagehub, *Endpoint, error) {
	mh, err := messagehub.New(bindAddr, log, onConnect, onMessage)
	if err != nil {
		return nil, nil, err
	}

	entry, err := p.registerLocal(KindMessagehub, name, topic, mh.Addr().String())
	if err != nil {
		_ = mh.Close()
		return nil, nil, err
	}

	h := &endpointHandle{entry: entry, closer: mh.Close}
	p.addLocal(h)

	return mh, &Endpoint{proxy: p, id: entry.ID}, nil
}

// OpenMessagelink registers a pending Messagelink on topic; it connects
// once a Messagehub on that topic is seen and disconnects if it leaves.
func (p *Proxy) OpenMessagelink(name, topic string, onMessage OnMessage, log rlog.Logger) (*Messagelink, *Endpoint, error) {
	ml := newMessagelink(onMessage, log)

	entry, err := p.registerLocal(KindMessagelink, name, topic, "0.0.0.0:0")
	if err != nil {
		return nil, nil, err
	}

	h := &endpointHandle{entry: entry, messagelink: ml}
	p.addLocal(h)

	return ml, &Endpoint{proxy: p, id: entry.ID}, nil
}

// OpenStreamer constructs a Streamer on topic, bound to bindAddr.
func (p *Proxy) OpenStreamer(bindAddr, name, topic, mimeType string, log rlog.Logger, onClient streamer.OnClient, onBroadcast streamer.OnBroadcast) (*streamer.Streamer, *Endpoint, error) {
	s, err := streamer.New(bindAddr, name, topic, mimeType, log, onClient, onBroadcast)
	if err != nil {
		return nil, nil, err
	}

	p.mu.Lock()
	metrics := p.metrics
	p.mu.Unlock()
	s.SetDropHook(func() { metrics.IncStreamerDropped(topic) })

	entry, err := p.registerLocal(KindStreamer, name, topic, s.Addr().String())
	if err != nil {
		_ = s.Close()
		return nil, nil, err
	}

	h := &endpointHandle{entry: entry, closer: s.Close}
	p.addLocal(h)

	return s, &Endpoint{proxy: p, id: entry.ID}, nil
}

// OpenStreamerlink registers a pending Streamerlink on topic; it connects
// (when autoconnect is true) once a Streamer on that topic is seen, and
// clears its target if the streamer leaves.
func (p *Proxy) OpenStreamerlink(name, topic string, onData streamerlink.OnData, autoconnect bool, log rlog.Logger) (*streamerlink.Streamerlink, *Endpoint, error) {
	sl := streamerlink.New(onData, autoconnect, log)

	entry, err := p.registerLocal(KindStreamerlink, name, topic, "0.0.0.0:0")
	if err != nil {
		return nil, nil, err
	}

	h := &endpointHandle{entry: entry, streamerlink: sl, closer: func() error { return sl.Disconnect() }}
	p.addLocal(h)

	return sl, &Endpoint{proxy: p, id: entry.ID}, nil
}

// OpenService constructs a Service on topic, bound to bindAddr. A Service
// is never a wiring target: peers address it directly through the
// registry's address field, so it only needs registration/teardown.
func (p *Proxy) OpenService(bindAddr, name, topic string, log rlog.Logger) (*service.Service, *Endpoint, error) {
	svc, err := service.New(bindAddr, name, log)
	if err != nil {
		return nil, nil, err
	}

	entry, err := p.registerLocal(KindService, name, topic, svc.Addr().String())
	if err != nil {
		_ = svc.Close()
		return nil, nil, err
	}

	h := &endpointHandle{entry: entry, closer: svc.Close}
	p.addLocal(h)

	return svc, &Endpoint{proxy: p, id: entry.ID}, nil
}

// Close tears down every local endpoint this Proxy opened and closes the
// registry link.
func (p *Proxy) Close() error {
	p.mu.Lock()
	ids := make([]string, 0, len(p.locals))
	for id := range p.locals {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		_ = p.closeLocal(id)
	}

	if p.link != nil {
		return p.link.Close(1000)
	}
	return nil
}
