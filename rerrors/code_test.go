/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package rerrors_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"rcom/rerrors"
)

var _ = Describe("CodeError", func() {
	It("every taxonomy code has a registered message", func() {
		for _, c := range []rerrors.CodeError{
			rerrors.InvalidArgument,
			rerrors.OutOfMemory,
			rerrors.NetworkUnreachable,
			rerrors.PeerClosed,
			rerrors.ProtocolError,
			rerrors.Timeout,
			rerrors.RegistryConflict,
			rerrors.RPCError,
			rerrors.Internal,
		} {
			Expect(rerrors.ExistInMapMessage(c)).To(BeTrue())
			Expect(c.Message()).ToNot(BeEmpty())
		}
	})

	It("falls back to the numeric string when unregistered", func() {
		c := rerrors.CodeError(65000)
		Expect(rerrors.ExistInMapMessage(c)).To(BeFalse())
		Expect(c.Message()).To(Equal("65000"))
	})

	It("RegisterIdFctMessage makes a code resolvable", func() {
		c := rerrors.NewCodeError(rerrors.MinPkgDatalink, 1)
		rerrors.RegisterIdFctMessage(c, func() string { return "sequence gap detected" })
		Expect(c.Message()).To(Equal("sequence gap detected"))
	})

	It("ParseCodeError round-trips String", func() {
		c, err := rerrors.ParseCodeError(rerrors.Timeout.String())
		Expect(err).ToNot(HaveOccurred())
		Expect(c).To(Equal(rerrors.Timeout))
	})

	It("package ranges never overlap", func() {
		ranges := []uint16{
			rerrors.MinPkgCommon, rerrors.MinPkgAddr, rerrors.MinPkgPacket,
			rerrors.MinPkgBuffer, rerrors.MinPkgHttpWire, rerrors.MinPkgWSFrame,
			rerrors.MinPkgMultipart, rerrors.MinPkgDatalink, rerrors.MinPkgDatahub,
			rerrors.MinPkgMessagelink, rerrors.MinPkgMessagehub, rerrors.MinPkgRPC,
			rerrors.MinPkgStreamer, rerrors.MinPkgStreamerlink, rerrors.MinPkgService,
			rerrors.MinPkgRegistry, rerrors.MinPkgProxy, rerrors.MinPkgConfig,
		}
		for i := 1; i < len(ranges); i++ {
			Expect(ranges[i]).To(BeNumerically(">", ranges[i-1]))
		}
	})

	It("IfError gates on a non-nil parent", func() {
		Expect(rerrors.Timeout.IfError()).To(BeNil())
	})
})
