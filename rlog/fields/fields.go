/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package fields carries the structured key/value pairs attached to a log
// entry - peer address, topic, correlation id - independently of the
// message text, so a hook can render or drop them without string parsing.
package fields

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type Fields interface {
	// Clone returns an independent copy.
	Clone() Fields
	// Add sets key to val and returns the receiver, for chaining.
	Add(key string, val any) Fields
	Delete(key string) Fields
	Merge(other Fields) Fields
	Get(key string) (any, bool)
	Walk(fct func(key string, val any) bool)
	// Logrus renders the fields as a logrus.Fields map.
	Logrus() logrus.Fields
}

func New() Fields {
	return &flds{m: make(map[string]any)}
}

type flds struct {
	mu sync.RWMutex
	m  map[string]any
}

func (f *flds) Clone() Fields {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := &flds{m: make(map[string]any, len(f.m))}
	for k, v := range f.m {
		n.m[k] = v
	}
	return n
}

func (f *flds) Add(key string, val any) Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[key] = val
	return f
}

func (f *flds) Delete(key string) Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, key)
	return f
}

func (f *flds) Merge(other Fields) Fields {
	if other == nil {
		return f
	}
	other.Walk(func(key string, val any) bool {
		f.Add(key, val)
		return true
	})
	return f
}

func (f *flds) Get(key string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.m[key]
	return v, ok
}

func (f *flds) Walk(fct func(key string, val any) bool) {
	f.mu.RLock()
	cp := make(map[string]any, len(f.m))
	for k, v := range f.m {
		cp[k] = v
	}
	f.mu.RUnlock()

	for k, v := range cp {
		if !fct(k, v) {
			return
		}
	}
}

func (f *flds) Logrus() logrus.Fields {
	f.mu.RLock()
	defer f.mu.RUnlock()

	r := make(logrus.Fields, len(f.m))
	for k, v := range f.m {
		r[k] = v
	}
	return r
}
