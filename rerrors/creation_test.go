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
	stderrors "errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"rcom/rerrors"
)

var _ = Describe("Error Creation", func() {
	Describe("New", func() {
		It("builds an error carrying the given code and message", func() {
			err := rerrors.New(rerrors.Timeout.Uint16(), "dial timed out")
			Expect(err).ToNot(BeNil())
			Expect(err.Code()).To(Equal(rerrors.Timeout.Uint16()))
			Expect(err.StringError()).To(Equal("dial timed out"))
		})

		It("folds parent errors into the hierarchy", func() {
			p := stderrors.New("connection reset")
			err := rerrors.New(rerrors.NetworkUnreachable.Uint16(), "write failed", p)
			Expect(err.HasParent()).To(BeTrue())
			Expect(err.ContainsString("connection reset")).To(BeTrue())
		})
	})

	Describe("Newf", func() {
		It("formats the message", func() {
			err := rerrors.Newf(rerrors.ProtocolError.Uint16(), "unexpected opcode %d at offset %d", 0x0b, 42)
			Expect(err.StringError()).To(ContainSubstring("11"))
			Expect(err.StringError()).To(ContainSubstring("42"))
		})
	})

	Describe("NewErrorTrace", func() {
		It("uses the supplied file and line rather than capturing one", func() {
			err := rerrors.NewErrorTrace(int(rerrors.Internal), "rehydrated from wire", "wsframe/codec.go", 77)
			Expect(err.GetTrace()).To(ContainSubstring("77"))
		})

		It("clamps an out of range code", func() {
			err := rerrors.NewErrorTrace(-5, "negative code", "f.go", 1)
			Expect(err.Code()).To(Equal(uint16(0)))
		})
	})

	Describe("NewErrorRecovered", func() {
		It("captures the panic value as a parent", func() {
			err := rerrors.NewErrorRecovered("callback panicked", "index out of range")
			Expect(err.HasParent()).To(BeTrue())
			Expect(err.ContainsString("index out of range")).To(BeTrue())
		})

		It("has no parent when the recovered value is empty", func() {
			err := rerrors.NewErrorRecovered("callback panicked", "")
			Expect(err.HasParent()).To(BeFalse())
		})
	})

	Describe("Make", func() {
		It("wraps a plain error", func() {
			err := rerrors.Make(stderrors.New("plain"))
			Expect(err).ToNot(BeNil())
			Expect(err.StringError()).To(Equal("plain"))
		})

		It("passes an existing Error through unchanged", func() {
			orig := rerrors.New(rerrors.Timeout.Uint16(), "t")
			Expect(rerrors.Make(orig)).To(BeIdenticalTo(orig))
		})

		It("returns nil for nil", func() {
			Expect(rerrors.Make(nil)).To(BeNil())
		})
	})

	Describe("MakeIfError", func() {
		It("folds several errors into one", func() {
			err := rerrors.MakeIfError(stderrors.New("a"), stderrors.New("b"))
			Expect(err).ToNot(BeNil())
			Expect(err.HasParent()).To(BeTrue())
		})

		It("returns nil when every argument is nil", func() {
			Expect(rerrors.MakeIfError(nil, nil)).To(BeNil())
		})
	})

	Describe("IfError", func() {
		It("returns nil unless a parent is given", func() {
			Expect(rerrors.IfError(rerrors.Internal.Uint16(), "x")).To(BeNil())
		})

		It("returns an error once a parent is given", func() {
			err := rerrors.IfError(rerrors.Internal.Uint16(), "x", stderrors.New("cause"))
			Expect(err).ToNot(BeNil())
		})
	})

	Describe("long chains", func() {
		It("accumulates every Add call", func() {
			err := rerrors.New(rerrors.Internal.Uint16(), "root")
			for i := 0; i < 50; i++ {
				err.Add(fmt.Errorf("parent %d", i))
			}
			Expect(err.GetParent(false)).To(HaveLen(50))
		})
	})
})
