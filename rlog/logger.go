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

// Package rlog is the structured logging backend shared by every node
// process: registry, proxy, and every link/hub it wires. A logrus entry
// carries the level, message and fields; hooks decide where it lands
// (colorized console, rotated file, syslog).
package rlog

import (
	"io"
	"log"
	"sync"

	"github.com/sirupsen/logrus"

	rfld "rcom/rlog/fields"
	rlvl "rcom/rlog/level"
)

// Logger is the structured logging surface every runtime component takes
// as a dependency instead of the bare stdlib log package.
type Logger interface {
	io.WriteCloser

	SetLevel(lvl rlvl.Level)
	GetLevel() rlvl.Level

	SetFields(f rfld.Fields)
	GetFields() rfld.Fields

	Clone() Logger

	GetStdLogger(lvl rlvl.Level, flags int) *log.Logger

	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warning(message string, args ...any)
	Error(message string, args ...any)
	Fatal(message string, args ...any)

	// WithFields returns a derived Logger carrying f merged on top of the
	// receiver's own fields, leaving the receiver unchanged.
	WithFields(f rfld.Fields) Logger
}

// New returns a Logger backed by logrus, writing entries to w; hooks added
// with AddHook receive every entry as well. The returned Logger owns no hook by default - callers wire
// rlog/hookconsole and rlog/hookfile as needed.
func New(w io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(rlvl.InfoLevel.Logrus())

	return &lgr{
		mu: &sync.RWMutex{},
		l:  l,
		f:  rfld.New(),
		v:  rlvl.InfoLevel,
	}
}

type lgr struct {
	mu *sync.RWMutex
	l  *logrus.Logger
	f  rfld.Fields
	v  rlvl.Level
}

func (g *lgr) Write(p []byte) (int, error) {
	g.entry().Log(g.v.Logrus(), string(p))
	return len(p), nil
}

func (g *lgr) Close() error {
	return nil
}

func (g *lgr) SetLevel(lvl rlvl.Level) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.v = lvl
	g.l.SetLevel(lvl.Logrus())
}

func (g *lgr) GetLevel() rlvl.Level {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.v
}

func (g *lgr) SetFields(f rfld.Fields) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.f = f
}

func (g *lgr) GetFields() rfld.Fields {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.f
}

func (g *lgr) Clone() Logger {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return &lgr{
		mu: &sync.RWMutex{},
		l:  g.l,
		f:  g.f.Clone(),
		v:  g.v,
	}
}

func (g *lgr) WithFields(f rfld.Fields) Logger {
	n := g.Clone().(*lgr)
	n.f = n.f.Clone().Merge(f)
	return n
}

func (g *lgr) GetStdLogger(lvl rlvl.Level, flags int) *log.Logger {
	return log.New(g.l.WriterLevel(lvl.Logrus()), "", flags)
}

func (g *lgr) entry() *logrus.Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.l.WithFields(g.f.Logrus())
}

// enabled reports whether a message at lvl should be emitted, comparing
// directly against the configured Level rather than relying on logrus's own
// notion of its level field - NilLevel must disable every message, which a
// logrus.Level comparison alone cannot express since NilLevel has no
// equivalent logrus constant.
func (g *lgr) enabled(lvl rlvl.Level) bool {
	cur := g.GetLevel()
	if cur == rlvl.NilLevel {
		return false
	}
	return lvl <= cur
}

func (g *lgr) Debug(message string, args ...any) {
	if g.enabled(rlvl.DebugLevel) {
		g.entry().Debugf(message, args...)
	}
}

func (g *lgr) Info(message string, args ...any) {
	if g.enabled(rlvl.InfoLevel) {
		g.entry().Infof(message, args...)
	}
}

func (g *lgr) Warning(message string, args ...any) {
	if g.enabled(rlvl.WarnLevel) {
		g.entry().Warnf(message, args...)
	}
}

func (g *lgr) Error(message string, args ...any) {
	if g.enabled(rlvl.ErrorLevel) {
		g.entry().Errorf(message, args...)
	}
}

func (g *lgr) Fatal(message string, args ...any) {
	if g.enabled(rlvl.FatalLevel) {
		g.entry().Fatalf(message, args...)
	}
}

// AddHook registers a logrus.Hook (console, file, syslog) on the backend.
func AddHook(l Logger, h logrus.Hook) {
	if g, ok := l.(*lgr); ok {
		g.l.AddHook(h)
	}
}
