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

package rconfig_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom/rconfig"
	"rcom/rlog"
	rlvl "rcom/rlog/level"
)

var _ = Describe("BindJWW", func() {
	var log rlog.Logger

	BeforeEach(func() {
		log = rlog.New(&bytes.Buffer{})
	})

	DescribeTable("binds every level without panicking",
		func(lvl rlvl.Level) {
			Expect(func() {
				rconfig.BindJWW(log, lvl)
			}).ToNot(Panic())
		},
		Entry("nil", rlvl.NilLevel),
		Entry("debug", rlvl.DebugLevel),
		Entry("info", rlvl.InfoLevel),
		Entry("warn", rlvl.WarnLevel),
		Entry("error", rlvl.ErrorLevel),
		Entry("fatal", rlvl.FatalLevel),
		Entry("panic", rlvl.PanicLevel),
	)
})
