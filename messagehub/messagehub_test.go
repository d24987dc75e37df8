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

package messagehub_test

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom/httpwire"
	"rcom/messagehub"
	"rcom/messagelink"
)

var _ = Describe("Messagehub", func() {
	var hub *messagehub.Messagehub

	AfterEach(func() {
		if hub != nil {
			_ = hub.Close()
		}
	})

	It("accepts a dialed client and exchanges a message", func() {
		var mu sync.Mutex
		var received []string

		var err error
		hub, err = messagehub.New("127.0.0.1:0", nil, nil,
			func(_ *messagehub.Messagehub, _ *messagelink.Link, msg json.RawMessage) {
				var s string
				if json.Unmarshal(msg, &s) == nil {
					mu.Lock()
					received = append(received, s)
					mu.Unlock()
				}
			})
		Expect(err).ToNot(HaveOccurred())

		client, err := messagelink.Dial(hub.Addr().String(), nil)
		Expect(err).ToNot(HaveOccurred())
		defer client.Close(1000)

		Expect(client.SendStr("hi")).To(Succeed())

		Eventually(func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), received...)
		}, time.Second, 10*time.Millisecond).Should(ContainElement("hi"))
	})

	It("registers a link and broadcasts to every connected client but the excluded one", func() {
		var err error
		hub, err = messagehub.New("127.0.0.1:0", nil, nil, nil)
		Expect(err).ToNot(HaveOccurred())

		c1, err := messagelink.Dial(hub.Addr().String(), nil)
		Expect(err).ToNot(HaveOccurred())
		defer c1.Close(1000)

		c2, err := messagelink.Dial(hub.Addr().String(), nil)
		Expect(err).ToNot(HaveOccurred())
		defer c2.Close(1000)

		Eventually(func() int { return len(hub.Links()) }, time.Second, 10*time.Millisecond).Should(Equal(2))

		var excluded *messagelink.Link
		for _, l := range hub.Links() {
			if l.RemoteAddr() == c1.LocalAddr() {
				excluded = l
			}
		}
		Expect(excluded).ToNot(BeNil())

		hub.Broadcast(excluded, "wide")

		msg2, err := c2.ReadMessage()
		Expect(err).ToNot(HaveOccurred())
		var got2 string
		Expect(json.Unmarshal(msg2, &got2)).To(Succeed())
		Expect(got2).To(Equal("wide"))

		_ = c1.Close(1000)
	})

	It("rejects a connection when onConnect returns an error", func() {
		var err error
		hub, err = messagehub.New("127.0.0.1:0", nil,
			func(_ *messagehub.Messagehub, _ *httpwire.Request, _ *messagelink.Link) error {
				return errors.New("rejected")
			}, nil)
		Expect(err).ToNot(HaveOccurred())

		client, err := messagelink.Dial(hub.Addr().String(), nil)
		Expect(err).ToNot(HaveOccurred())
		defer client.Close(1000)

		Consistently(func() int { return len(hub.Links()) }, 150*time.Millisecond, 10*time.Millisecond).Should(Equal(0))
	})
})
