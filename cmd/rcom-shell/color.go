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

package main

import (
	"fmt"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
)

// out is every printing command's destination: colorable wrapping stdout so
// ANSI codes degrade cleanly if the shell's output is piped or redirected,
// same reasoning rlog/hookconsole applies to log lines.
var out = colorable.NewColorableStdout()

// entryColor picks one color per registry entry type, so a `list`/`watch`
// listing is scannable at a glance without reading the type column.
func entryColor(entryType string) *color.Color {
	switch entryType {
	case "datalink":
		return color.New(color.FgCyan)
	case "datahub":
		return color.New(color.FgBlue)
	case "messagelink":
		return color.New(color.FgGreen)
	case "messagehub":
		return color.New(color.FgHiGreen)
	case "streamer":
		return color.New(color.FgMagenta)
	case "streamerlink":
		return color.New(color.FgHiMagenta)
	case "service":
		return color.New(color.FgWhite)
	default:
		return color.New(color.Reset)
	}
}

// dimColor marks an entry that vanished from the last poll in watch.
func dimColor() *color.Color {
	return color.New(color.FgHiBlack)
}

func printf(c *color.Color, format string, args ...any) {
	_, _ = c.Fprintf(out, format, args...)
}

func errorf(format string, args ...any) {
	_, _ = color.New(color.FgRed).Fprintf(out, format, args...)
}

func plainf(format string, args ...any) {
	fmt.Fprintf(out, format, args...)
}
