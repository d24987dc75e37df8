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

package datalink_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom/datalink"
	"rcom/packet"
	"rcom/rctx"
)

var _ = Describe("Datalink", func() {
	It("fails to send before a remote address is set", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		l, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer l.Close()

		Expect(l.RemoteAddr().IsZero()).To(BeTrue())
		Expect(l.Send([]byte("x"))).To(HaveOccurred())
	})

	It("sends and reads a datagram once the remote address is set", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		a, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer a.Close()

		b, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer b.Close()

		a.SetRemoteAddr(b.Addr())
		Expect(a.Send([]byte("hello"))).To(Succeed())

		pkt, err := b.Read(time.Second)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(pkt.Payload())).To(Equal("hello"))
		Expect(pkt.Timestamp().IsZero()).To(BeFalse())
	})

	It("clears the remote address so sends fail again", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		a, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer a.Close()

		b, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer b.Close()

		a.SetRemoteAddr(b.Addr())
		a.ClearRemoteAddr()
		Expect(a.Send([]byte("x"))).To(HaveOccurred())
	})

	It("assigns increasing sequence numbers across sends", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		a, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer a.Close()

		b, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer b.Close()

		a.SetRemoteAddr(b.Addr())
		Expect(a.Send([]byte("one"))).To(Succeed())
		Expect(a.Send([]byte("two"))).To(Succeed())

		first, err := b.Read(time.Second)
		Expect(err).ToNot(HaveOccurred())
		second, err := b.Read(time.Second)
		Expect(err).ToNot(HaveOccurred())

		Expect(second.Seqnum()).To(Equal(first.Seqnum() + 1))
	})

	It("times out a Read when nothing arrives", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		l, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer l.Close()

		_, err = l.Read(20 * time.Millisecond)
		Expect(err).To(HaveOccurred())
	})

	It("delivers inbound datagrams through a registered OnData callback", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		var mu sync.Mutex
		var got []*packet.Packet

		b, err := datalink.New(rt, nil, func(_ *datalink.Datalink, pkt *packet.Packet) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, pkt)
		})
		Expect(err).ToNot(HaveOccurred())
		defer b.Close()

		a, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer a.Close()

		a.SetRemoteAddr(b.Addr())
		Expect(a.Send([]byte("callback"))).To(Succeed())

		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(got)
		}, time.Second, 10*time.Millisecond).Should(Equal(1))

		mu.Lock()
		defer mu.Unlock()
		Expect(string(got[0].Payload())).To(Equal("callback"))
	})
})
