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

package rerrors

// Package code ranges. Each component of the runtime owns a block of 100
// codes so two packages can never collide; codes from MinAvailable up are
// left for anything added later.
const (
	MinPkgCommon       uint16 = 100
	MinPkgAddr         uint16 = 200
	MinPkgPacket       uint16 = 300
	MinPkgBuffer       uint16 = 400
	MinPkgHttpWire     uint16 = 500
	MinPkgWSFrame      uint16 = 600
	MinPkgMultipart    uint16 = 700
	MinPkgDatalink     uint16 = 800
	MinPkgDatahub      uint16 = 900
	MinPkgMessagelink  uint16 = 1000
	MinPkgMessagehub   uint16 = 1100
	MinPkgRPC          uint16 = 1200
	MinPkgStreamer     uint16 = 1300
	MinPkgStreamerlink uint16 = 1400
	MinPkgService      uint16 = 1500
	MinPkgRegistry     uint16 = 1600
	MinPkgProxy        uint16 = 1700
	MinPkgConfig       uint16 = 1800
	MinAvailable       uint16 = 2000
)

// The taxonomy of §7: every error raised anywhere in the runtime classifies
// as one of these, regardless of which package's range it was allocated
// from. A handler can therefore test rerrors.Has(err, rerrors.Timeout)
// without caring whether the timeout came from datalink or messagehub.
const (
	InvalidArgument     = CodeError(MinPkgCommon + 1)
	OutOfMemory         = CodeError(MinPkgCommon + 2)
	NetworkUnreachable  = CodeError(MinPkgCommon + 3)
	PeerClosed          = CodeError(MinPkgCommon + 4)
	ProtocolError       = CodeError(MinPkgCommon + 5)
	Timeout             = CodeError(MinPkgCommon + 6)
	RegistryConflict    = CodeError(MinPkgCommon + 7)
	RPCError            = CodeError(MinPkgCommon + 8)
	Internal            = CodeError(MinPkgCommon + 9)
)

func init() {
	RegisterIdFctMessage(InvalidArgument, func() string { return "invalid argument" })
	RegisterIdFctMessage(OutOfMemory, func() string { return "out of memory" })
	RegisterIdFctMessage(NetworkUnreachable, func() string { return "network unreachable" })
	RegisterIdFctMessage(PeerClosed, func() string { return "peer closed the connection" })
	RegisterIdFctMessage(ProtocolError, func() string { return "protocol error" })
	RegisterIdFctMessage(Timeout, func() string { return "operation timed out" })
	RegisterIdFctMessage(RegistryConflict, func() string { return "registry entry conflict" })
	RegisterIdFctMessage(RPCError, func() string { return "rpc call failed" })
	RegisterIdFctMessage(Internal, func() string { return "internal error" })
}
