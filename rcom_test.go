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

package rcom_test

import (
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rcom"
	"rcom/rconfig"
	"rcom/registry"
)

var _ = Describe("Init", func() {
	It("requires --registry unless --standalone is set", func() {
		_, err := rcom.Init(rconfig.Default())
		Expect(err).To(HaveOccurred())
	})

	It("builds a standalone runtime with an empty mirror", func() {
		cfg := rconfig.Default()
		cfg.Standalone = true

		rt, err := rcom.Init(cfg)
		Expect(err).ToNot(HaveOccurred())
		defer rt.Close()

		Expect(rt.Mirror()).To(BeEmpty())
	})

	It("dials an explicit registry and opens endpoints through it", func() {
		r, err := registry.New("127.0.0.1:0", nil)
		Expect(err).ToNot(HaveOccurred())
		defer r.Close()

		cfg := rconfig.Default()
		cfg.Name = "node-a"
		cfg.Registry = r.Addr().String()

		rt, err := rcom.Init(cfg)
		Expect(err).ToNot(HaveOccurred())
		defer rt.Close()

		svc, ep, err := rt.OpenService("127.0.0.1:0", "svc-a", "svc-topic")
		Expect(err).ToNot(HaveOccurred())
		Expect(svc).ToNot(BeNil())
		defer ep.Close()

		Eventually(func() []registry.Entry {
			return rt.Mirror()
		}, time.Second).ShouldNot(BeEmpty())
	})

	It("serves /metrics once --metrics-addr is set", func() {
		cfg := rconfig.Default()
		cfg.Standalone = true
		cfg.MetricsAddr = "127.0.0.1:0"

		rt, err := rcom.Init(cfg)
		Expect(err).ToNot(HaveOccurred())
		defer rt.Close()

		Expect(rt.Metrics()).ToNot(BeNil())
		Expect(rt.MetricsAddr()).ToNot(BeEmpty())

		var resp *http.Response
		Eventually(func() error {
			resp, err = http.Get(fmt.Sprintf("http://%s/metrics", rt.MetricsAddr()))
			return err
		}, time.Second).Should(Succeed())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})
})
