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

import "sync"

// ErrorMode controls what Error.Error() renders.
type ErrorMode uint8

const (
	ErrorReturnCode ErrorMode = iota
	ErrorReturnCodeFull
	ErrorReturnCodeError
	ErrorReturnCodeErrorFull
	ErrorReturnCodeErrorTrace
	ErrorReturnCodeErrorTraceFull
	ErrorReturnStringError
	ErrorReturnStringErrorFull

	Default = ErrorReturnStringError
)

func (m ErrorMode) String() string {
	switch m {
	case ErrorReturnCode:
		return "code"
	case ErrorReturnCodeFull:
		return "code-full"
	case ErrorReturnCodeError:
		return "code-error"
	case ErrorReturnCodeErrorFull:
		return "code-error-full"
	case ErrorReturnCodeErrorTrace:
		return "code-error-trace"
	case ErrorReturnCodeErrorTraceFull:
		return "code-error-trace-full"
	case ErrorReturnStringError:
		return "string-error"
	case ErrorReturnStringErrorFull:
		return "string-error-full"
	default:
		return "unknown"
	}
}

func (m ErrorMode) error(e *ers) string {
	switch m {
	case ErrorReturnCode:
		return e.CodeError(defaultPattern)
	case ErrorReturnCodeFull:
		var r = e.CodeErrorSlice(defaultPattern)
		return joinStrings(r)
	case ErrorReturnCodeError:
		return e.CodeError("")
	case ErrorReturnCodeErrorFull:
		return joinStrings(e.CodeErrorSlice(""))
	case ErrorReturnCodeErrorTrace:
		return e.CodeErrorTrace("")
	case ErrorReturnCodeErrorTraceFull:
		return joinStrings(e.CodeErrorTraceSlice(""))
	case ErrorReturnStringError:
		return e.StringError()
	case ErrorReturnStringErrorFull:
		return joinStrings(e.StringErrorSlice())
	default:
		return e.StringError()
	}
}

func joinStrings(s []string) string {
	var r string
	for i, v := range s {
		if i > 0 {
			r += " <- "
		}
		r += v
	}
	return r
}

var (
	modeMutex sync.RWMutex
	modeError = Default
)

// SetModeReturnError sets the package-wide rendering mode for Error.Error().
func SetModeReturnError(m ErrorMode) {
	modeMutex.Lock()
	defer modeMutex.Unlock()
	modeError = m
}

// GetModeReturnError returns the package-wide rendering mode.
func GetModeReturnError() ErrorMode {
	modeMutex.RLock()
	defer modeMutex.RUnlock()
	return modeError
}
