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

package buffer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom/buffer"
)

var _ = Describe("Ring", func() {
	It("starts empty with full space available", func() {
		r := buffer.New(8)
		Expect(r.DataAvailable()).To(Equal(0))
		Expect(r.SpaceAvailable()).To(Equal(8))
	})

	It("reads back exactly what was written", func() {
		r := buffer.New(8)
		n, ok := r.Write([]byte("abcd"))
		Expect(ok).To(BeTrue())
		Expect(n).To(Equal(4))

		dst := make([]byte, 4)
		Expect(r.Read(dst)).To(Equal(4))
		Expect(dst).To(Equal([]byte("abcd")))
		Expect(r.DataAvailable()).To(Equal(0))
	})

	It("rejects a write that would exceed capacity, leaving the ring unchanged", func() {
		r := buffer.New(4)
		_, ok := r.Write([]byte("abcd"))
		Expect(ok).To(BeTrue())

		n, ok := r.Write([]byte("e"))
		Expect(ok).To(BeFalse())
		Expect(n).To(Equal(0))
		Expect(r.DataAvailable()).To(Equal(4))
	})

	It("a read larger than available returns only what is there", func() {
		r := buffer.New(8)
		r.Write([]byte("ab"))

		dst := make([]byte, 8)
		n := r.Read(dst)
		Expect(n).To(Equal(2))
		Expect(dst[:2]).To(Equal([]byte("ab")))
	})

	It("wraps the read/write index around capacity", func() {
		r := buffer.New(4)
		r.Write([]byte("ab"))

		dst := make([]byte, 2)
		r.Read(dst)

		// write index is now at 2; this write straddles the end of the
		// underlying slice and wraps back to the start.
		n, ok := r.Write([]byte("cdef"))
		Expect(ok).To(BeTrue())
		Expect(n).To(Equal(4))

		out := make([]byte, 4)
		Expect(r.Read(out)).To(Equal(4))
		Expect(out).To(Equal([]byte("cdef")))
	})

	It("Reset empties the ring without changing capacity", func() {
		r := buffer.New(4)
		r.Write([]byte("ab"))
		r.Reset()

		Expect(r.DataAvailable()).To(Equal(0))
		Expect(r.Size()).To(Equal(4))
	})
})
