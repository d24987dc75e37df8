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

package rconfig

import (
	"io"

	jww "github.com/spf13/jwalterweatherman"

	"rcom/rlog"
	rlvl "rcom/rlog/level"
)

// BindJWW routes viper's and pflag's own jwalterweatherman logging
// through log instead of jww's default stderr Notepad, so a registry
// parse warning lands in the same rotated file as every other message
// this process emits.
func BindJWW(log rlog.Logger, lvl rlvl.Level) {
	jww.SetStdoutOutput(log)

	switch lvl {
	case rlvl.NilLevel:
		jww.SetLogOutput(io.Discard)
		jww.SetLogThreshold(jww.LevelCritical)
	case rlvl.DebugLevel:
		jww.SetLogOutput(log)
		jww.SetLogThreshold(jww.LevelTrace)
	case rlvl.InfoLevel:
		jww.SetLogOutput(log)
		jww.SetLogThreshold(jww.LevelInfo)
	case rlvl.WarnLevel:
		jww.SetLogOutput(log)
		jww.SetLogThreshold(jww.LevelWarn)
	case rlvl.ErrorLevel:
		jww.SetLogOutput(log)
		jww.SetLogThreshold(jww.LevelError)
	case rlvl.FatalLevel:
		jww.SetLogOutput(log)
		jww.SetLogThreshold(jww.LevelFatal)
	case rlvl.PanicLevel:
		jww.SetLogOutput(log)
		jww.SetLogThreshold(jww.LevelCritical)
	}
}
