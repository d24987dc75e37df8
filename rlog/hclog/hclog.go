/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package hclog adapts rlog.Logger to the hashicorp/go-hclog interface, so
// that third-party libraries expecting an hclog.Logger can log through the
// same sinks as the rest of the runtime.
package hclog

import (
	"io"
	"log"

	hc "github.com/hashicorp/go-hclog"

	rfld "rcom/rlog/fields"
	rlvl "rcom/rlog/level"
	rlog "rcom/rlog"
)

const (
	ArgsField = "hclog.args"
	NameField = "hclog.name"
)

type adapter struct {
	l rlog.Logger
}

// New wraps l as an hc.Logger.
func New(l rlog.Logger) hc.Logger {
	return &adapter{l: l}
}

func (a *adapter) Log(level hc.Level, msg string, args ...any) {
	switch level {
	case hc.Off, hc.NoLevel:
		return
	case hc.Trace, hc.Debug:
		a.l.Debug(msg, args...)
	case hc.Info:
		a.l.Info(msg, args...)
	case hc.Warn:
		a.l.Warning(msg, args...)
	case hc.Error:
		a.l.Error(msg, args...)
	}
}

func (a *adapter) Trace(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *adapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *adapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *adapter) Warn(msg string, args ...any)  { a.l.Warning(msg, args...) }
func (a *adapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }

func (a *adapter) IsTrace() bool { return a.l.GetLevel() >= rlvl.DebugLevel }
func (a *adapter) IsDebug() bool { return a.l.GetLevel() >= rlvl.DebugLevel }
func (a *adapter) IsInfo() bool  { return a.l.GetLevel() >= rlvl.InfoLevel }
func (a *adapter) IsWarn() bool  { return a.l.GetLevel() >= rlvl.WarnLevel }
func (a *adapter) IsError() bool { return a.l.GetLevel() >= rlvl.ErrorLevel }

func (a *adapter) ImpliedArgs() []any {
	if v, ok := a.l.GetFields().Get(ArgsField); ok {
		if s, ok := v.([]any); ok {
			return s
		}
	}
	return nil
}

func (a *adapter) With(args ...any) hc.Logger {
	a.l.GetFields().Add(ArgsField, args)
	return a
}

func (a *adapter) Name() string {
	if v, ok := a.l.GetFields().Get(NameField); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (a *adapter) Named(name string) hc.Logger {
	n := &adapter{l: a.l.WithFields(rfld.New().Add(NameField, name))}
	return n
}

func (a *adapter) ResetNamed(name string) hc.Logger {
	return a.Named(name)
}

func (a *adapter) SetLevel(level hc.Level) {
	switch level {
	case hc.Off, hc.NoLevel:
		a.l.SetLevel(rlvl.NilLevel)
	case hc.Trace, hc.Debug:
		a.l.SetLevel(rlvl.DebugLevel)
	case hc.Info:
		a.l.SetLevel(rlvl.InfoLevel)
	case hc.Warn:
		a.l.SetLevel(rlvl.WarnLevel)
	case hc.Error:
		a.l.SetLevel(rlvl.ErrorLevel)
	}
}

func (a *adapter) GetLevel() hc.Level {
	switch a.l.GetLevel() {
	case rlvl.NilLevel:
		return hc.Off
	case rlvl.DebugLevel:
		return hc.Debug
	case rlvl.InfoLevel:
		return hc.Info
	case rlvl.WarnLevel:
		return hc.Warn
	default:
		return hc.Error
	}
}

func (a *adapter) StandardLogger(opts *hc.StandardLoggerOptions) *log.Logger {
	return a.l.GetStdLogger(a.l.GetLevel(), 0)
}

func (a *adapter) StandardWriter(opts *hc.StandardLoggerOptions) io.Writer {
	return a.l
}
