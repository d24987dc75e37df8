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

package wsframe_test

import (
	"bufio"
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom/wsframe"
)

var _ = Describe("AcceptKey", func() {
	It("matches the RFC 6455 worked example", func() {
		Expect(wsframe.AcceptKey("dGhlIHNhbXBsZSBub25jZQ==")).
			To(Equal("s3pPLMBiTxaQ9kYGzzhZRbK+xOo="))
	})
})

var _ = Describe("Handshake round trip", func() {
	It("accepts its own client key on the client side", func() {
		key, err := wsframe.NewClientKey()
		Expect(err).ToNot(HaveOccurred())

		buf := &bytes.Buffer{}
		w := bufio.NewWriter(buf)
		Expect(wsframe.WriteServerHandshake(w, key)).To(Succeed())

		r := bufio.NewReader(buf)
		Expect(wsframe.ReadServerHandshakeResponse(r, key)).To(Succeed())
	})

	It("rejects a handshake response with a mismatched accept key", func() {
		key, _ := wsframe.NewClientKey()
		other, _ := wsframe.NewClientKey()

		buf := &bytes.Buffer{}
		w := bufio.NewWriter(buf)
		Expect(wsframe.WriteServerHandshake(w, other)).To(Succeed())

		r := bufio.NewReader(buf)
		Expect(wsframe.ReadServerHandshakeResponse(r, key)).To(HaveOccurred())
	})
})
