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

package datahub_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom/addr"
	"rcom/datahub"
	"rcom/datalink"
	"rcom/packet"
	"rcom/rctx"
)

var _ = Describe("Datahub", func() {
	It("tracks AddLink/RemoveLink membership", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		h, err := datahub.New(rt, nil, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer h.Close()

		a, err := addr.New("127.0.0.1", 9999)
		Expect(err).ToNot(HaveOccurred())

		Expect(h.Links()).To(BeEmpty())
		h.AddLink(a)
		Expect(h.Links()).To(ConsistOf(a))
		h.RemoveLink(a)
		Expect(h.Links()).To(BeEmpty())
	})

	It("delivers a datagram from a subscribed link to onData", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		var mu sync.Mutex
		var gotLink addr.Address
		var gotPayload string

		h, err := datahub.New(rt, nil, func(_ *datahub.Datahub, link addr.Address, pkt *packet.Packet) {
			mu.Lock()
			defer mu.Unlock()
			gotLink = link
			gotPayload = string(pkt.Payload())
		}, nil)
		Expect(err).ToNot(HaveOccurred())
		defer h.Close()

		l, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer l.Close()

		h.AddLink(l.Addr())
		l.SetRemoteAddr(h.Addr())
		Expect(l.Send([]byte("subscribed"))).To(Succeed())

		Eventually(func() string {
			mu.Lock()
			defer mu.Unlock()
			return gotPayload
		}, time.Second, 10*time.Millisecond).Should(Equal("subscribed"))

		mu.Lock()
		defer mu.Unlock()
		Expect(gotLink.Equal(l.Addr())).To(BeTrue())
	})

	It("drops datagrams from a link that is not subscribed", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		var mu sync.Mutex
		calls := 0

		h, err := datahub.New(rt, nil, func(*datahub.Datahub, addr.Address, *packet.Packet) {
			mu.Lock()
			defer mu.Unlock()
			calls++
		}, nil)
		Expect(err).ToNot(HaveOccurred())
		defer h.Close()

		l, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer l.Close()

		l.SetRemoteAddr(h.Addr())
		Expect(l.Send([]byte("uninvited"))).To(Succeed())

		Consistently(func() int {
			mu.Lock()
			defer mu.Unlock()
			return calls
		}, 150*time.Millisecond, 10*time.Millisecond).Should(Equal(0))
	})

	It("sends to a specific link", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		h, err := datahub.New(rt, nil, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer h.Close()

		l, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer l.Close()

		h.AddLink(l.Addr())
		Expect(h.Send(l.Addr(), []byte("direct"))).To(Succeed())

		pkt, err := l.Read(time.Second)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(pkt.Payload())).To(Equal("direct"))
	})

	It("broadcasts to every link except the excluded one", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		h, err := datahub.New(rt, nil, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer h.Close()

		l1, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer l1.Close()

		l2, err := datalink.New(rt, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer l2.Close()

		h.AddLink(l1.Addr())
		h.AddLink(l2.Addr())

		h.Broadcast(l1.Addr(), []byte("wide"))

		pkt, err := l2.Read(time.Second)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(pkt.Payload())).To(Equal("wide"))

		_, err = l1.Read(20 * time.Millisecond)
		Expect(err).To(HaveOccurred())
	})

	It("invokes the broadcast pacer in a loop", func() {
		rt := rctx.New(nil)
		defer rt.Cancel()

		var mu sync.Mutex
		calls := 0

		h, err := datahub.New(rt, nil, nil, func(*datahub.Datahub) {
			mu.Lock()
			calls++
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
		})
		Expect(err).ToNot(HaveOccurred())
		defer h.Close()

		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return calls
		}, time.Second, 10*time.Millisecond).Should(BeNumerically(">=", 2))
	})
})
