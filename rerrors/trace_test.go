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

package rerrors_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"rcom/rerrors"
)

var _ = Describe("Stack trace capture", func() {
	It("captures a frame outside the rerrors package on New", func() {
		err := rerrors.New(rerrors.Internal.Uint16(), "boom")
		Expect(err.GetTrace()).ToNot(BeEmpty())
		Expect(err.GetTrace()).To(ContainSubstring("trace_test.go"))
	})

	It("honors an explicit file/line from NewErrorTrace", func() {
		err := rerrors.NewErrorTrace(int(rerrors.Internal), "rehydrated", "remote/frame.go", 12)
		Expect(err.GetTrace()).To(Equal("remote/frame.go#12"))
	})

	It("strips registered path prefixes", func() {
		rerrors.SetTracePathFilter("/build/rcom/")
		defer rerrors.SetTracePathFilter()

		err := rerrors.NewErrorTrace(int(rerrors.Internal), "x", "/build/rcom/datalink/recv.go", 9)
		Expect(err.GetTrace()).To(Equal("datalink/recv.go#9"))
	})

	It("GetTraceSlice mirrors the parent chain", func() {
		p := rerrors.NewErrorTrace(int(rerrors.Timeout), "p", "a.go", 1)
		c := rerrors.NewErrorTrace(int(rerrors.Internal), "c", "b.go", 2, p)
		Expect(c.GetTraceSlice()).To(ContainElement("a.go#1"))
		Expect(c.GetTraceSlice()).To(ContainElement("b.go#2"))
	})
})
