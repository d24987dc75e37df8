/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package buffer is the fixed-capacity circular byte buffer every
// streamer client worker and streamerlink reader drains through: the
// producer side writes whole chunks or not at all, the consumer side
// polls for whatever is available.
package buffer

import "sync"

// Ring is a fixed-capacity circular byte buffer. All methods are safe
// for concurrent use.
type Ring struct {
	mu    sync.Mutex
	buf   []byte
	rpos  int
	wpos  int
	avail int
}

// New allocates a Ring with room for capacity bytes. capacity must be
// greater than zero.
func New(capacity int) *Ring {
	if capacity <= 0 {
		panic("buffer: capacity must be > 0")
	}
	return &Ring{buf: make([]byte, capacity)}
}

// Size returns the ring's total capacity.
func (r *Ring) Size() int {
	return len(r.buf)
}

// DataAvailable returns how many bytes are currently readable.
func (r *Ring) DataAvailable() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.avail
}

// SpaceAvailable returns how many bytes can currently be written.
func (r *Ring) SpaceAvailable() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf) - r.avail
}

// Write appends data atomically. If data does not fit in the space
// currently available, the whole write is rejected: the ring is left
// unchanged and Write returns 0, false.
func (r *Ring) Write(data []byte) (n int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(data) > len(r.buf)-r.avail {
		return 0, false
	}

	for _, b := range data {
		r.buf[r.wpos] = b
		r.wpos = (r.wpos + 1) % len(r.buf)
	}
	r.avail += len(data)

	return len(data), true
}

// Read copies up to min(len(dst), DataAvailable()) bytes into dst and
// advances the read position. A Read on an empty ring returns 0:
// callers poll.
func (r *Ring) Read(dst []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(dst)
	if n > r.avail {
		n = r.avail
	}

	for i := 0; i < n; i++ {
		dst[i] = r.buf[r.rpos]
		r.rpos = (r.rpos + 1) % len(r.buf)
	}
	r.avail -= n

	return n
}

// Reset empties the ring without changing its capacity.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rpos, r.wpos, r.avail = 0, 0, 0
}
