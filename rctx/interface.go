/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package rctx carries the runtime's lifecycle: a single cancellation source
// every link, hub, and the registry derive their own working context from,
// replacing the quit-flag a callback-driven C runtime would poll. Closing
// the root Runtime (or its parent ctx being canceled) fans out to every
// derived child without each one needing to know about the others.
package rctx

import (
	"context"
	"sync"
	"time"
)

// FuncWalk is called for each key-value pair during a Walk; returning false
// stops the iteration early.
type FuncWalk[T comparable] func(key T, val any) bool

// Runtime wraps a context.Context with a child-tracking registry, so a
// process can hold one Runtime and fan cancellation out to every datalink,
// messagehub, streamer, and registry client it opened.
type Runtime interface {
	context.Context

	// Cancel cancels this Runtime's own context and every child derived
	// from it via Child. Idempotent.
	Cancel()
	// Closed reports whether Cancel has run or the parent context ended.
	Closed() bool

	// Child derives a new Runtime bound to this one: canceling the parent
	// cancels the child, but canceling the child does not affect the
	// parent. Used to give each accepted connection or opened link its
	// own cancellation scope nested under the process-wide Runtime.
	Child() Runtime

	// Store/Load/Delete expose a small typed registry carried alongside
	// the context, used to stash per-Runtime state (a connection's peer
	// address, a link's negotiated topic) without a bespoke struct field
	// for every caller.
	Store(key string, val any)
	Load(key string) (val any, ok bool)
	Delete(key string)
	Walk(fct FuncWalk[string])
}

// New wraps parent (or context.Background if nil) into a cancelable Runtime.
func New(parent context.Context) Runtime {
	if parent == nil {
		parent = context.Background()
	}

	c, cancel := context.WithCancel(parent)
	return &rtm{
		ctx:    c,
		cancel: cancel,
		vals:   make(map[string]any),
	}
}

type rtm struct {
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	vals   map[string]any
}

func (r *rtm) Deadline() (deadline time.Time, ok bool) {
	return r.ctx.Deadline()
}

func (r *rtm) Done() <-chan struct{} {
	return r.ctx.Done()
}

func (r *rtm) Err() error {
	return r.ctx.Err()
}

func (r *rtm) Value(key any) any {
	if s, ok := key.(string); ok {
		if v, found := r.Load(s); found {
			return v
		}
	}
	return r.ctx.Value(key)
}

func (r *rtm) Cancel() {
	r.cancel()
}

func (r *rtm) Closed() bool {
	select {
	case <-r.ctx.Done():
		return true
	default:
		return false
	}
}

func (r *rtm) Child() Runtime {
	return New(r.ctx)
}

func (r *rtm) Store(key string, val any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vals[key] = val
}

func (r *rtm) Load(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vals[key]
	return v, ok
}

func (r *rtm) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.vals, key)
}

func (r *rtm) Walk(fct FuncWalk[string]) {
	r.mu.RLock()
	cp := make(map[string]any, len(r.vals))
	for k, v := range r.vals {
		cp[k] = v
	}
	r.mu.RUnlock()

	for k, v := range cp {
		if !fct(k, v) {
			return
		}
	}
}
