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
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom/wsframe"
)

var _ = Describe("Frame round trip", func() {
	It("round-trips a short unmasked text frame", func() {
		buf := &bytes.Buffer{}
		Expect(wsframe.WriteFrame(buf, wsframe.OpText, []byte(`{"a":1}`))).To(Succeed())

		f, err := wsframe.ReadFrame(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(f.Opcode).To(Equal(wsframe.OpText))
		Expect(string(f.Payload)).To(Equal(`{"a":1}`))
	})

	It("round-trips a masked frame, unmasking on read", func() {
		buf := &bytes.Buffer{}
		Expect(wsframe.WriteMaskedFrame(buf, wsframe.OpBinary, []byte("payload"))).To(Succeed())

		f, err := wsframe.ReadFrame(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(f.Opcode).To(Equal(wsframe.OpBinary))
		Expect(string(f.Payload)).To(Equal("payload"))
	})

	It("round-trips a payload requiring the 16-bit length extension", func() {
		payload := bytes.Repeat([]byte("x"), 1000)

		buf := &bytes.Buffer{}
		Expect(wsframe.WriteFrame(buf, wsframe.OpBinary, payload)).To(Succeed())

		f, err := wsframe.ReadFrame(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(f.Payload).To(Equal(payload))
	})

	It("round-trips an empty close frame", func() {
		buf := &bytes.Buffer{}
		Expect(wsframe.WriteFrame(buf, wsframe.OpClose, nil)).To(Succeed())

		f, err := wsframe.ReadFrame(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(f.Opcode).To(Equal(wsframe.OpClose))
		Expect(f.Payload).To(BeEmpty())
	})

	It("rejects a truncated frame header", func() {
		buf := bytes.NewBuffer([]byte{0x81})
		_, err := wsframe.ReadFrame(buf)
		Expect(err).To(HaveOccurred())
	})
})
