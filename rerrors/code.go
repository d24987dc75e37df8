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

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// CodeError is a numeric error classification, grouped into per-package
// ranges so two packages never collide on the same code.
type CodeError uint16

// ParseCodeError parses a decimal string into a CodeError.
func ParseCodeError(s string) (CodeError, error) {
	i, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return CodeError(i), nil
}

// NewCodeError allocates the next CodeError in a package's range, offset by n.
func NewCodeError(min uint16, n uint16) CodeError {
	return CodeError(min + n)
}

func (c CodeError) Uint16() uint16 {
	return uint16(c)
}

func (c CodeError) Int() int {
	return int(c)
}

func (c CodeError) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// GetMessage returns the registered message for this code, or its numeric
// string if none was registered.
func (c CodeError) GetMessage() string {
	mapMutex.RLock()
	defer mapMutex.RUnlock()

	if fct, ok := mapMessage[c]; ok {
		return fct()
	}

	return c.String()
}

func (c CodeError) Message() string {
	return c.GetMessage()
}

func (c CodeError) Error() string {
	return c.GetMessage()
}

func (c CodeError) Errorf(pattern string, args ...any) string {
	if pattern == "" {
		return c.GetMessage()
	}
	return fmt.Sprintf(pattern, args...)
}

// IfError returns a populated Error if parent contains at least one non-nil
// error, nil otherwise.
func (c CodeError) IfError(parent ...error) Error {
	return IfError(c.Uint16(), c.GetMessage(), parent...)
}

var (
	mapMutex   sync.RWMutex
	mapMessage = make(map[CodeError]func() string)
)

// RegisterIdFctMessage registers the message-provider function for a code.
// Packages call this from an init() to publish their taxonomy.
func RegisterIdFctMessage(code CodeError, fct func() string) {
	mapMutex.Lock()
	defer mapMutex.Unlock()

	mapMessage[code] = fct
}

// ExistInMapMessage reports whether a code has a registered message.
func ExistInMapMessage(code CodeError) bool {
	mapMutex.RLock()
	defer mapMutex.RUnlock()

	_, ok := mapMessage[code]
	return ok
}

func getMapMessageKey() []CodeError {
	mapMutex.RLock()
	defer mapMutex.RUnlock()

	var r = make([]CodeError, 0, len(mapMessage))
	for k := range mapMessage {
		r = append(r, k)
	}
	return r
}

// GetCodePackages returns every registered code, ordered ascending.
func GetCodePackages() []CodeError {
	return orderMapMessage(getMapMessageKey())
}

func orderMapMessage(s []CodeError) []CodeError {
	sort.Slice(s, func(i, j int) bool {
		return s[i] < s[j]
	})
	return s
}

func findCodeErrorInMapMessage(c CodeError, s []CodeError) bool {
	return isCodeInSlice(c, s)
}

func isCodeInSlice(c CodeError, s []CodeError) bool {
	for _, v := range s {
		if v == c {
			return true
		}
	}
	return false
}

func unicCodeSlice(s []CodeError) []CodeError {
	var (
		seen = make(map[CodeError]bool)
		r    = make([]CodeError, 0, len(s))
	)

	for _, v := range s {
		if seen[v] {
			continue
		}
		seen[v] = true
		r = append(r, v)
	}

	return r
}
