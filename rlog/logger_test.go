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

package rlog_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	rlog "rcom/rlog"
	rfld "rcom/rlog/fields"
	rlvl "rcom/rlog/level"
)

var _ = Describe("Logger", func() {
	var buf *bytes.Buffer
	var l rlog.Logger

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		l = rlog.New(buf)
	})

	It("defaults to InfoLevel", func() {
		Expect(l.GetLevel()).To(Equal(rlvl.InfoLevel))
	})

	It("writes Info messages at InfoLevel", func() {
		l.Info("node %s registered", "arm-01")
		Expect(buf.String()).To(ContainSubstring("arm-01"))
	})

	It("suppresses Debug output below the configured level", func() {
		l.SetLevel(rlvl.InfoLevel)
		l.Debug("verbose detail")
		Expect(buf.String()).To(BeEmpty())
	})

	It("carries fields into every entry", func() {
		l.SetFields(rfld.New().Add("node", "arm-01"))
		l.Info("ready")
		Expect(buf.String()).To(ContainSubstring("node"))
		Expect(buf.String()).To(ContainSubstring("arm-01"))
	})

	It("WithFields derives a logger without mutating the original", func() {
		base := l.WithFields(rfld.New().Add("base", true))
		derived := base.WithFields(rfld.New().Add("extra", true))

		_, ok := base.GetFields().Get("extra")
		Expect(ok).To(BeFalse())

		_, ok = derived.GetFields().Get("extra")
		Expect(ok).To(BeTrue())
	})

	It("Clone copies level and fields independently", func() {
		l.SetLevel(rlvl.DebugLevel)
		c := l.Clone()
		l.SetLevel(rlvl.ErrorLevel)

		Expect(c.GetLevel()).To(Equal(rlvl.DebugLevel))
	})
})
