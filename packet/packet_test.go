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

package packet_test

import (
	"bytes"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom/packet"
)

var _ = Describe("Packet", func() {
	It("starts empty, unstamped, seqnum zero", func() {
		p := packet.New()
		Expect(p.Seqnum()).To(Equal(uint32(0)))
		Expect(p.Timestamp().IsZero()).To(BeTrue())
		Expect(p.Len()).To(Equal(0))
	})

	It("round-trips seqnum and payload through Bytes/UnmarshalBytes", func() {
		p := packet.New()
		p.SetSeqnum(42)
		p.SetTimestampNow()
		truncated := p.SetPayload([]byte("hello odometry"))
		Expect(truncated).To(BeFalse())

		wire := append([]byte(nil), p.Bytes()...)

		q := packet.New()
		Expect(q.UnmarshalBytes(wire)).To(Succeed())
		Expect(q.Seqnum()).To(Equal(uint32(42)))
		Expect(q.Payload()).To(Equal([]byte("hello odometry")))
		Expect(q.Timestamp().IsZero()).To(BeFalse())
	})

	It("clears the timestamp back to unstamped", func() {
		p := packet.New()
		p.SetTimestampNow()
		Expect(p.Timestamp().IsZero()).To(BeFalse())

		p.ClearTimestamp()
		Expect(p.Timestamp().IsZero()).To(BeTrue())
	})

	It("truncates an oversized payload to MaxPayload and reports it", func() {
		p := packet.New()
		big := bytes.Repeat([]byte("x"), packet.MaxPayload+100)

		truncated := p.SetPayload(big)
		Expect(truncated).To(BeTrue())
		Expect(p.Len()).To(Equal(packet.MaxPayload))
	})

	It("rejects a datagram shorter than the header on unmarshal", func() {
		p := packet.New()
		err := p.UnmarshalBytes([]byte{1, 2, 3})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a datagram larger than MaxSize on unmarshal", func() {
		p := packet.New()
		err := p.UnmarshalBytes(bytes.Repeat([]byte{0}, packet.MaxSize+1))
		Expect(err).To(HaveOccurred())
	})

	It("stamps a given time to microsecond precision", func() {
		p := packet.New()
		t := time.Now().Truncate(time.Microsecond)
		p.SetTimestamp(t)
		Expect(p.Timestamp().Equal(t)).To(BeTrue())
	})
})
