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

// Package addr is the IPv4 address type shared by every transport in this
// module: a UDP datahub/datalink pair, a messagehub/messagelink pair, a
// streamer/streamerlink pair and a service all name their peers the same
// way.
package addr

import (
	"fmt"
	"strconv"
	"strings"

	rerr "rcom/rerrors"
)

// Address is an immutable IPv4 address and port pair. The zero value is
// 0.0.0.0:0.
type Address struct {
	ip   [4]byte
	port uint16
}

// Zero is the unset address, equivalent to "0.0.0.0:0".
var Zero = Address{}

// New builds an Address from dotted-quad ip and a port in [0, 65535].
func New(ip string, port int) (Address, error) {
	var a Address
	if err := a.setIP(ip); err != nil {
		return Address{}, err
	}
	if err := a.setPort(port); err != nil {
		return Address{}, err
	}
	return a, nil
}

// Parse reads strictly "ip:port": exactly one colon, IP 7..15 chars,
// port in [0, 65535]. Parse(s.String()) is identity for any Address
// produced by Parse or New.
func Parse(s string) (Address, error) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 || strings.IndexByte(s, ':') != i {
		return Address{}, rerr.Newf(rerr.InvalidArgument.Uint16(), "addr: %q: expected exactly one colon", s)
	}

	ip, ports := s[:i], s[i+1:]
	if ip == "" {
		return Address{}, rerr.Newf(rerr.InvalidArgument.Uint16(), "addr: %q: missing ip", s)
	}
	port, err := strconv.Atoi(ports)
	if err != nil {
		return Address{}, rerr.Newf(rerr.InvalidArgument.Uint16(), "addr: %q: invalid port", s)
	}

	return New(ip, port)
}

func (a *Address) setIP(ip string) error {
	if ip == "" {
		a.ip = [4]byte{0, 0, 0, 0}
		return nil
	}
	if len(ip) < 7 || len(ip) > 15 {
		return rerr.Newf(rerr.InvalidArgument.Uint16(), "addr: invalid ip: %q", ip)
	}

	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return rerr.Newf(rerr.InvalidArgument.Uint16(), "addr: invalid ip: %q", ip)
	}

	var out [4]byte
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return rerr.Newf(rerr.InvalidArgument.Uint16(), "addr: invalid ip: %q", ip)
		}
		out[i] = byte(n)
	}

	a.ip = out
	return nil
}

func (a *Address) setPort(port int) error {
	if port < 0 || port >= 65536 {
		return rerr.Newf(rerr.InvalidArgument.Uint16(), "addr: invalid port: %d", port)
	}
	a.port = uint16(port)
	return nil
}

// IP renders the dotted-quad IPv4 address, e.g. "192.168.1.12".
func (a Address) IP() string {
	return fmt.Sprintf("%d.%d.%d.%d", a.ip[0], a.ip[1], a.ip[2], a.ip[3])
}

// Port returns the port number.
func (a Address) Port() uint16 {
	return a.port
}

// String renders "ip:port".
func (a Address) String() string {
	return fmt.Sprintf("%s:%d", a.IP(), a.port)
}

// IsZero reports whether a is the unset address.
func (a Address) IsZero() bool {
	return a == Zero
}

// Equal compares both IP and port.
func (a Address) Equal(b Address) bool {
	return a == b
}
