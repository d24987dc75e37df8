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

package httpwire_test

import (
	"bufio"
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom/httpwire"
)

var _ = Describe("Response", func() {
	It("writes a status line, Content-Length and body", func() {
		buf := &bytes.Buffer{}
		w := bufio.NewWriter(buf)

		resp := httpwire.NewResponse().SetBody([]byte(`{"ok":true}`), "application/json")
		Expect(resp.WriteTo(w)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("HTTP/1.1 200 OK\r\n"))
		Expect(out).To(ContainSubstring("Content-Length: 11\r\n"))
		Expect(out).To(ContainSubstring("Content-Type: application/json\r\n"))
		Expect(out).To(HaveSuffix(`{"ok":true}`))
	})

	It("WriteChunkedHeader announces Transfer-Encoding: chunked with no body", func() {
		buf := &bytes.Buffer{}
		hdr := map[string][]string{"Content-Type": {"multipart/x-mixed-replace; boundary=nextimage"}}

		Expect(httpwire.WriteChunkedHeader(buf, 200, hdr)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("Transfer-Encoding: chunked\r\n"))
		Expect(out).To(HaveSuffix("\r\n\r\n"))
	})

	It("WriteChunk frames a chunk with its hex length and a trailing terminator", func() {
		buf := &bytes.Buffer{}
		Expect(httpwire.WriteChunk(buf, []byte("hello"))).To(Succeed())
		Expect(httpwire.WriteChunk(buf, nil)).To(Succeed())

		Expect(buf.String()).To(Equal("5\r\nhello\r\n0\r\n\r\n"))
	})
})
