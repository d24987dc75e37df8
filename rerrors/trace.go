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
	"path"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

const traceDepthMax = 32

// getFrame captures the first caller frame outside this package.
func getFrame() runtime.Frame {
	var pc = make([]uintptr, traceDepthMax)

	n := runtime.Callers(2, pc)
	if n == 0 {
		return getNilFrame()
	}

	frames := runtime.CallersFrames(pc[:n])
	pkg := filterPkg() + "."

	for {
		f, more := frames.Next()

		if !strings.HasPrefix(f.Function, pkg) {
			return f
		}

		if !more {
			break
		}
	}

	return getNilFrame()
}

// getFrameVendor captures every caller frame, innermost first - used to
// annotate a recovered panic with its full call chain.
func getFrameVendor() []runtime.Frame {
	var pc = make([]uintptr, traceDepthMax)

	n := runtime.Callers(2, pc)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pc[:n])
	var res = make([]runtime.Frame, 0, n)

	for {
		f, more := frames.Next()
		res = append(res, f)

		if !more {
			break
		}
	}

	return res
}

func getNilFrame() runtime.Frame {
	return runtime.Frame{}
}

func filterPkg() string {
	return path.Clean(ConvPathFromLocal(reflect.TypeOf(ers{}).PkgPath()))
}

var (
	tracePathMutex sync.RWMutex
	tracePathFilter []string
)

func filterPath(p string) string {
	tracePathMutex.RLock()
	defer tracePathMutex.RUnlock()

	var r = p

	for _, f := range tracePathFilter {
		r = strings.Replace(r, f, "", 1)
	}

	return r
}

func frameInSlice(f runtime.Frame, s []runtime.Frame) bool {
	for _, v := range s {
		if v.File == f.File && v.Line == f.Line && v.Function == f.Function {
			return true
		}
	}
	return false
}

// ConvPathFromLocal normalizes a GOPATH/module-cache source path into a
// package-path-like string usable for prefix filtering.
func ConvPathFromLocal(p string) string {
	if i := strings.Index(p, "/pkg/mod/"); i >= 0 {
		p = p[i+len("/pkg/mod/"):]
	}
	if i := strings.LastIndex(p, "@"); i >= 0 {
		if j := strings.Index(p[i:], "/"); j >= 0 {
			p = p[:i] + p[i+j:]
		}
	}
	return p
}

// SetTracePathFilter registers path fragments to strip from captured traces,
// typically the build machine's GOPATH prefix.
func SetTracePathFilter(prefix ...string) {
	tracePathMutex.Lock()
	defer tracePathMutex.Unlock()

	tracePathFilter = prefix
}
