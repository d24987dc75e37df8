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

import "encoding/json"

// Return is the wire shape an Error can flatten itself into - used by the
// Service and RPC response paths to surface a rerrors.Error as a reply
// payload without leaking a stack trace to the remote peer.
type Return interface {
	SetError(code int, msg string, file string, line int)
	AddParent(code int, msg string, file string, line int)
}

// DefaultReturn is a JSON envelope for reporting a non-nil rerrors.Error:
// {"code":"...","message":"...","parents":[...]}.
type DefaultReturn struct {
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message"`
	Parents []string `json:"parents,omitempty"`
}

func (d *DefaultReturn) SetError(code int, msg string, _ string, _ int) {
	d.Code = CodeError(code).String()
	d.Message = msg
}

func (d *DefaultReturn) AddParent(_ int, msg string, _ string, _ int) {
	d.Parents = append(d.Parents, msg)
}

// MarshalJSON encodes the struct fields as tagged, through an alias type so
// that encoding does not recurse into this method.
func (d *DefaultReturn) MarshalJSON() ([]byte, error) {
	type alias DefaultReturn
	return json.Marshal((*alias)(d))
}
