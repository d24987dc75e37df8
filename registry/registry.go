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

// Package registry is the central directory: a Messagehub on a
// well-known topic that holds every registered endpoint in the fleet
// and broadcasts add/remove/update-address events to every connected
// proxy as the directory changes.
package registry

import (
	"encoding/json"
	"net"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-uuid"

	"rcom/messagehub"
	"rcom/messagelink"
	"rcom/rlog"
	"rcom/rmetrics"
)

// Entry is one registered endpoint in the directory.
type Entry struct {
	ID    string `json:"id" validate:"required,uuid"`
	Name  string `json:"name" validate:"required,min=4,max=256"`
	Topic string `json:"topic" validate:"required,min=2,max=256"`
	Type  string `json:"type" validate:"required,oneof=datalink datahub messagelink messagehub service streamer streamerlink"`
	Addr  string `json:"addr" validate:"required"`
}

// sameIdentity reports whether two entries describe the same endpoint
// regardless of their ID - registration is de-duplicated on
// (name, topic, type, addr), never on ID, so a re-registration after a
// restart with a fresh ID still collides with the entry it replaces.
func (e Entry) sameIdentity(o Entry) bool {
	return e.Name == o.Name && e.Topic == o.Topic && e.Type == o.Type && e.Addr == o.Addr
}

type wireRequest struct {
	Request string `json:"request"`
	Entry   *Entry `json:"entry,omitempty"`
	ID      string `json:"id,omitempty"`
	Addr    string `json:"addr,omitempty"`
}

type wireReply struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	List     []Entry `json:"list,omitempty"`
}

type addEvent struct {
	Event string `json:"event"`
	Entry Entry  `json:"entry"`
}

type removeEvent struct {
	Event string `json:"event"`
	ID    string `json:"id"`
}

type updateAddressEvent struct {
	Event string `json:"event"`
	ID    string `json:"id"`
	Addr  string `json:"addr"`
}

// Registry owns a Messagehub on topic "registry" (by convention bound
// to the well-known default port by the caller) and the in-memory
// directory of entries it serves.
type Registry struct {
	hub      *messagehub.Messagehub
	log      rlog.Logger
	validate *validator.Validate
	metrics  *rmetrics.Metrics

	mu      sync.Mutex
	entries map[string]Entry
}

// SetMetrics attaches a Prometheus recorder. Passing nil disables
// instrumentation (the default).
func (r *Registry) SetMetrics(m *rmetrics.Metrics) {
	r.mu.Lock()
	r.metrics = m
	r.mu.Unlock()
	r.reportEntryCountsLocked()
}

func (r *Registry) metricsSnapshot() *rmetrics.Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

// knownEntryTypes lists every registry.Entry.Type the proxy package
// ever registers, so a type that drops to zero still gets its gauge
// reset rather than left stale.
var knownEntryTypes = []string{
	"datalink", "datahub", "messagelink", "messagehub",
	"streamer", "streamerlink", "service",
}

// reportEntryCountsLocked recomputes rcom_registry_entries per type.
// Callers must not hold r.mu.
func (r *Registry) reportEntryCountsLocked() {
	r.mu.Lock()
	m := r.metrics
	counts := make(map[string]int)
	for _, e := range r.entries {
		counts[e.Type]++
	}
	r.mu.Unlock()

	for _, typ := range knownEntryTypes {
		m.SetRegistryEntries(typ, counts[typ])
	}
}

// New binds a Messagehub on addr and starts serving registry requests.
func New(addr string, log rlog.Logger) (*Registry, error) {
	r := &Registry{
		log:      log,
		validate: validator.New(),
		entries:  make(map[string]Entry),
	}

	hub, err := messagehub.New(addr, log, nil, r.onMessage)
	if err != nil {
		return nil, err
	}
	r.hub = hub

	return r, nil
}

// Addr returns the registry hub's bound address.
func (r *Registry) Addr() net.Addr { return r.hub.Addr() }

// Entries returns a snapshot of every currently registered entry,
// sorted by ID for deterministic ordering.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (r *Registry) onMessage(_ *messagehub.Messagehub, link *messagelink.Link, msg json.RawMessage) {
	var req wireRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		if r.log != nil {
			r.log.Warning("registry: malformed request: %v", err)
		}
		return
	}

	switch req.Request {
	case "register":
		r.handleRegister(link, req.Entry)
	case "unregister":
		r.handleUnregister(link, req.ID)
	case "update-address":
		r.handleUpdateAddress(link, req.ID, req.Addr)
	case "list":
		r.handleList(link)
	default:
		if r.log != nil {
			r.log.Warning("registry: unknown request %q", req.Request)
		}
	}
}

func (r *Registry) handleRegister(link *messagelink.Link, entry *Entry) {
	if entry == nil {
		_ = link.SendObj(wireReply{Response: "register", Success: false, Message: "registry: missing entry"})
		return
	}

	e := *entry
	if e.ID == "" {
		id, err := uuid.GenerateUUID()
		if err != nil {
			_ = link.SendObj(wireReply{Response: "register", Success: false, Message: "registry: generating id: " + err.Error()})
			return
		}
		e.ID = id
	}

	if err := r.validate.Struct(e); err != nil {
		_ = link.SendObj(wireReply{Response: "register", Success: false, Message: "registry: " + err.Error()})
		return
	}

	r.mu.Lock()
	for _, existing := range r.entries {
		if existing.sameIdentity(e) {
			r.mu.Unlock()
			_ = link.SendObj(wireReply{Response: "register", Success: false, Message: "registry: entry already present"})
			return
		}
	}
	r.entries[e.ID] = e
	r.mu.Unlock()

	r.hub.Broadcast(nil, addEvent{Event: "proxy-add", Entry: e})
	r.metricsSnapshot().IncRegistryEvent("proxy-add")
	r.reportEntryCountsLocked()
	_ = link.SendObj(wireReply{Response: "register", Success: true})
}

func (r *Registry) handleUnregister(link *messagelink.Link, id string) {
	r.mu.Lock()
	_, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		_ = link.SendObj(wireReply{Response: "unregister", Success: false, Message: "registry: unknown id"})
		return
	}

	r.hub.Broadcast(nil, removeEvent{Event: "proxy-remove", ID: id})
	r.metricsSnapshot().IncRegistryEvent("proxy-remove")
	r.reportEntryCountsLocked()
	_ = link.SendObj(wireReply{Response: "unregister", Success: true})
}

func (r *Registry) handleUpdateAddress(link *messagelink.Link, id, addr string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		e.Addr = addr
		r.entries[id] = e
	}
	r.mu.Unlock()

	if !ok {
		_ = link.SendObj(wireReply{Response: "update-address", Success: false, Message: "registry: unknown id"})
		return
	}

	r.hub.Broadcast(nil, updateAddressEvent{Event: "proxy-update-address", ID: id, Addr: addr})
	r.metricsSnapshot().IncRegistryEvent("proxy-update-address")
	_ = link.SendObj(wireReply{Response: "update-address", Success: true})
}

func (r *Registry) handleList(link *messagelink.Link) {
	_ = link.SendObj(wireReply{Response: "list", Success: true, List: r.Entries()})
}

// Close stops the registry hub and every connected proxy link.
func (r *Registry) Close() error {
	return r.hub.Close()
}
