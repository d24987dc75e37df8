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

package addr_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom/addr"
)

var _ = Describe("Address", func() {
	DescribeTable("Parse round-trips through String",
		func(s string) {
			a, err := addr.Parse(s)
			Expect(err).ToNot(HaveOccurred())
			Expect(a.String()).To(Equal(s))

			b, err := addr.Parse(a.String())
			Expect(err).ToNot(HaveOccurred())
			Expect(a.Equal(b)).To(BeTrue())
		},
		Entry("loopback", "127.0.0.1:10101"),
		Entry("zero port", "192.168.1.12:0"),
		Entry("max port", "10.0.0.1:65535"),
	)

	DescribeTable("Parse rejects malformed input",
		func(s string) {
			_, err := addr.Parse(s)
			Expect(err).To(HaveOccurred())
		},
		Entry("no colon", "127.0.0.1"),
		Entry("two colons", "127.0.0.1:10101:extra"),
		Entry("ip too short", "1.2:80"),
		Entry("port out of range", "127.0.0.1:70000"),
		Entry("negative port", "127.0.0.1:-1"),
		Entry("non-numeric port", "127.0.0.1:abc"),
	)

	It("compares both ip and port for equality", func() {
		a, _ := addr.New("10.0.0.1", 9000)
		b, _ := addr.New("10.0.0.1", 9001)
		c, _ := addr.New("10.0.0.2", 9000)
		d, _ := addr.New("10.0.0.1", 9000)

		Expect(a.Equal(b)).To(BeFalse())
		Expect(a.Equal(c)).To(BeFalse())
		Expect(a.Equal(d)).To(BeTrue())
	})

	It("defaults to 0.0.0.0 when no ip is given", func() {
		a, err := addr.New("", 10101)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.IP()).To(Equal("0.0.0.0"))
	})

	It("the zero value is the unset address", func() {
		var a addr.Address
		Expect(a.IsZero()).To(BeTrue())
		Expect(a.String()).To(Equal("0.0.0.0:0"))
	})
})
