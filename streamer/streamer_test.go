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

package streamer_test

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom/httpwire"
	"rcom/multipart"
	"rcom/streamer"
)

func rawGet(addr, uri string) (*bufio.Reader, net.Conn) {
	conn, err := net.Dial("tcp", addr)
	Expect(err).ToNot(HaveOccurred())
	fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: %s\r\n\r\n", uri, addr)
	return bufio.NewReader(conn), conn
}

var _ = Describe("Streamer", func() {
	var s *streamer.Streamer

	AfterEach(func() {
		if s != nil {
			_ = s.Close()
		}
	})

	It("serves an index.html page naming the streamer", func() {
		var err error
		s, err = streamer.New("127.0.0.1:0", "cam", "image", "image/jpeg", nil, nil, nil)
		Expect(err).ToNot(HaveOccurred())

		br, conn := rawGet(s.Addr().String(), "/")
		defer conn.Close()

		head, err := httpwire.ReadResponseHead(br)
		Expect(err).ToNot(HaveOccurred())
		Expect(head.Status).To(Equal(200))
	})

	It("serves an index.json listing", func() {
		var err error
		s, err = streamer.New("127.0.0.1:0", "cam", "image", "image/jpeg", nil, nil, nil)
		Expect(err).ToNot(HaveOccurred())

		br, conn := rawGet(s.Addr().String(), "/index.json")
		defer conn.Close()

		head, err := httpwire.ReadResponseHead(br)
		Expect(err).ToNot(HaveOccurred())
		Expect(head.Status).To(Equal(200))
	})

	It("rejects unknown routes with 400", func() {
		var err error
		s, err = streamer.New("127.0.0.1:0", "cam", "image", "image/jpeg", nil, nil, nil)
		Expect(err).ToNot(HaveOccurred())

		br, conn := rawGet(s.Addr().String(), "/nope")
		defer conn.Close()

		head, err := httpwire.ReadResponseHead(br)
		Expect(err).ToNot(HaveOccurred())
		Expect(head.Status).To(Equal(400))
	})

	It("streams a multipart part to a connected client", func() {
		var err error
		s, err = streamer.New("127.0.0.1:0", "cam", "image", "image/jpeg", nil, nil, nil)
		Expect(err).ToNot(HaveOccurred())

		br, conn := rawGet(s.Addr().String(), "/stream.html")
		defer conn.Close()

		head, err := httpwire.ReadResponseHead(br)
		Expect(err).ToNot(HaveOccurred())
		Expect(head.Status).To(Equal(200))

		Eventually(func() int { return s.ClientCount() }, time.Second, 10*time.Millisecond).Should(Equal(1))

		s.SendMultipart([]byte("jpegbytes"), "image/jpeg", 1.5)

		parser := multipart.New()
		var gotPart multipart.Part
		parser.OnPart = func(p multipart.Part) { gotPart = p }

		cr := httpwire.NewChunkReader(br)
		buf := make([]byte, 4096)
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		for gotPart.Payload == nil {
			n, err := cr.Read(buf)
			if n > 0 {
				Expect(parser.Write(buf[:n])).To(Succeed())
			}
			if err != nil {
				break
			}
		}

		Expect(string(gotPart.Payload)).To(Equal("jpegbytes"))
		Expect(gotPart.MimeType).To(Equal("image/jpeg"))
	})

	It("invokes the drop hook when a part does not fit in a client's ring", func() {
		var err error
		s, err = streamer.New("127.0.0.1:0", "cam", "image", "image/jpeg", nil, nil, nil)
		Expect(err).ToNot(HaveOccurred())

		var drops int
		s.SetDropHook(func() { drops++ })

		_, conn := rawGet(s.Addr().String(), "/stream.html")
		defer conn.Close()

		Eventually(func() int { return s.ClientCount() }, time.Second, 10*time.Millisecond).Should(Equal(1))

		oversized := make([]byte, 2*1024*1024)
		s.SendMultipart(oversized, "image/jpeg", 1.0)

		Expect(drops).To(Equal(1))
	})

	It("refuses a stream when onClient returns an error", func() {
		var err error
		s, err = streamer.New("127.0.0.1:0", "cam", "image", "image/jpeg", nil,
			func(*streamer.Streamer, *httpwire.Request) error {
				return errors.New("nope")
			}, nil)
		Expect(err).ToNot(HaveOccurred())

		br, conn := rawGet(s.Addr().String(), "/stream.html")
		defer conn.Close()

		head, err := httpwire.ReadResponseHead(br)
		Expect(err).ToNot(HaveOccurred())
		Expect(head.Status).To(Equal(500))
		Expect(s.ClientCount()).To(Equal(0))
	})
})
