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

// Package rerrors implements the error taxonomy of the communication runtime:
// a numeric CodeError classification (invalid argument, network unreachable,
// protocol error, timeout, registry conflict, rpc error, ...), automatic
// stack trace capture and parent/child error hierarchy, so that no exception
// ever needs to cross a callback boundary - a handler just returns a non-nil
// rerrors.Error and the surrounding loop decides what to do with it.
package rerrors

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
)

// FuncMap iterates over an error hierarchy; returning false stops the walk.
type FuncMap func(e error) bool

// ReturnError is a callback invoked with the decomposed fields of an Error.
type ReturnError func(code int, msg string, file string, line int)

// Error extends the standard error with a numeric code, parent chaining and
// stack trace capture.
type Error interface {
	error

	// IsCode checks the error's own code, not its parents.
	IsCode(code CodeError) bool
	// HasCode checks the error's own code and all of its parents.
	HasCode(code CodeError) bool
	GetCode() CodeError
	GetParentCode() []CodeError

	Is(e error) bool
	IsError(e error) bool
	HasError(err error) bool
	HasParent() bool
	GetParent(withMainError bool) []error
	Map(fct FuncMap) bool
	ContainsString(s string) bool

	// Add appends non-nil errors as parents of the receiver.
	Add(parent ...error)
	// SetParent replaces the parent list wholesale.
	SetParent(parent ...error)

	Code() uint16
	CodeSlice() []uint16

	CodeError(pattern string) string
	CodeErrorSlice(pattern string) []string

	CodeErrorTrace(pattern string) string
	CodeErrorTraceSlice(pattern string) []string

	Error() string
	StringError() string
	StringErrorSlice() []string

	GetError() error
	GetErrorSlice() []error
	Unwrap() []error

	GetTrace() string
	GetTraceSlice() []string

	Return(r Return)
	ReturnError(f ReturnError)
	ReturnParent(f ReturnError)
}

// Is reports whether e carries an Error.
func Is(e error) bool {
	var err Error
	return errors.As(e, &err)
}

// Get returns e as an Error, or nil if it isn't one.
func Get(e error) Error {
	var err Error
	if errors.As(e, &err) {
		return err
	}
	return nil
}

// Has reports whether e or any of its parents carries the given code.
func Has(e error, code CodeError) bool {
	if err := Get(e); err == nil {
		return false
	} else {
		return err.HasCode(code)
	}
}

// ContainsString reports whether e's message (or any parent's) contains s.
func ContainsString(e error, s string) bool {
	if e == nil {
		return false
	} else if err := Get(e); err == nil {
		return strings.Contains(e.Error(), s)
	} else {
		return err.ContainsString(s)
	}
}

// IsCode reports whether e's own code equals the given code.
func IsCode(e error, code CodeError) bool {
	if err := Get(e); err == nil {
		return false
	} else {
		return err.IsCode(code)
	}
}

// Make wraps a plain error into an Error (code 0) if it is not one already.
func Make(e error) Error {
	var err Error

	if e == nil {
		return nil
	} else if errors.As(e, &err) {
		return err
	} else {
		return &ers{
			c: 0,
			e: e.Error(),
			p: nil,
			t: getNilFrame(),
		}
	}
}

// MakeIfError folds a list of errors into a single Error, or nil if all are nil.
func MakeIfError(err ...error) Error {
	var e Error

	for _, p := range err {
		if p == nil {
			continue
		} else if e == nil {
			e = Make(p)
		} else {
			e.Add(p)
		}
	}

	return e
}

// AddOrNew adds errSub (and parent) onto errMain, creating errMain if needed.
func AddOrNew(errMain, errSub error, parent ...error) Error {
	var e Error

	if errMain != nil {
		if e = Get(errMain); e == nil {
			e = New(0, errMain.Error())
		}
		e.Add(errSub)
		e.Add(parent...)
		return e
	} else if errSub != nil {
		return New(0, errSub.Error(), parent...)
	}

	return nil
}

// New builds an Error with a stack frame captured at the call site.
func New(code uint16, message string, parent ...error) Error {
	var p = make([]Error, 0)

	for _, e := range parent {
		if er := Make(e); er != nil {
			p = append(p, er)
		}
	}

	return &ers{
		c: code,
		e: message,
		p: p,
		t: getFrame(),
	}
}

// Newf is New with a printf-style message.
func Newf(code uint16, pattern string, args ...any) Error {
	return &ers{
		c: code,
		e: fmt.Sprintf(pattern, args...),
		p: make([]Error, 0),
		t: getFrame(),
	}
}

// NewErrorTrace builds an Error with an explicit file/line instead of a
// captured stack frame - used when re-hydrating an error from the wire.
func NewErrorTrace(code int, msg string, file string, line int, parent ...error) Error {
	var p = make([]Error, 0)

	for _, e := range parent {
		if er := Make(e); er != nil {
			p = append(p, er)
		}
	}

	var i uint16
	if code < 0 {
		i = 0
	} else if code > math.MaxUint16 {
		i = math.MaxUint16
	} else {
		i = uint16(code)
	}

	return &ers{
		c: i,
		e: msg,
		p: p,
		t: runtime.Frame{File: file, Line: line},
	}
}

// NewErrorRecovered builds an Error from a recover() value, annotated with
// the caller chain - used by the panic guard every callback invocation is
// wrapped in (see the Design Note on exceptions across callback boundaries).
func NewErrorRecovered(msg string, recovered string, parent ...error) Error {
	var p = make([]Error, 0)

	if recovered != "" {
		p = append(p, &ers{c: 0, e: recovered, p: nil})
	}

	for _, e := range parent {
		if er := Make(e); er != nil {
			p = append(p, er)
		}
	}

	for _, t := range getFrameVendor() {
		if t == getNilFrame() {
			continue
		}
		msg += "\n " + fmt.Sprintf("Fct: %s - File: %s - Line: %d", t.Function, t.File, t.Line)
	}

	return &ers{
		c: 0,
		e: msg,
		p: p,
		t: getFrame(),
	}
}

// IfError returns nil unless at least one non-nil parent is given.
func IfError(code uint16, message string, parent ...error) Error {
	p := make([]Error, 0)

	for _, e := range parent {
		if er := Make(e); er != nil {
			p = append(p, er)
		}
	}

	if len(p) < 1 {
		return nil
	}

	return &ers{
		c: code,
		e: message,
		p: p,
		t: getFrame(),
	}
}

func NewDefaultReturn() *DefaultReturn {
	return &DefaultReturn{
		Code:    "",
		Message: "",
	}
}
