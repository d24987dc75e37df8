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

// Package hookconsole writes log entries to stdout/stderr, colorized by
// level through fatih/color, wrapped with mattn/go-colorable so the color
// codes degrade cleanly when the output is redirected to a file or pipe.
package hookconsole

import (
	"io"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

type Hook struct {
	out    io.Writer
	errOut io.Writer
	levels []logrus.Level
}

// New returns a hook splitting Warning-and-above to stderr and the rest to
// stdout, both colorized. Pass color.NoColor = true beforehand to disable.
func New(levels ...logrus.Level) *Hook {
	if len(levels) == 0 {
		levels = logrus.AllLevels
	}

	return &Hook{
		out:    colorable.NewColorableStdout(),
		errOut: colorable.NewColorableStderr(),
		levels: levels,
	}
}

func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

func (h *Hook) Fire(e *logrus.Entry) error {
	line, err := e.Bytes()
	if err != nil {
		return err
	}

	w := h.out
	if e.Level <= logrus.WarnLevel {
		w = h.errOut
	}

	_, err = w.Write([]byte(colorFor(e.Level, string(line))))
	return err
}

func colorFor(lvl logrus.Level, line string) string {
	switch lvl {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return color.New(color.FgRed).Sprint(line)
	case logrus.WarnLevel:
		return color.New(color.FgYellow).Sprint(line)
	case logrus.DebugLevel, logrus.TraceLevel:
		return color.New(color.FgCyan).Sprint(line)
	default:
		return line
	}
}
