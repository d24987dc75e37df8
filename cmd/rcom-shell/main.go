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

// Command rcom-shell is an interactive REPL against a registry: list every
// entry, inspect one by ID, or watch the directory for arrivals and
// departures. It never opens an endpoint of its own - it only ever reads
// the Proxy's mirror of the registry through the rcom façade.
package main

import (
	"fmt"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"rcom"
	"rcom/rconfig"
)

var subcommands = []prompt.Suggest{
	{Text: "list", Description: "list every entry the registry currently holds"},
	{Text: "inspect", Description: "inspect one entry by ID"},
	{Text: "watch", Description: "poll the registry and print arrivals/departures"},
	{Text: "exit", Description: "leave the shell"},
}

func completer(d prompt.Document) []prompt.Suggest {
	w := d.GetWordBeforeCursor()
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(subcommands, w, true)
}

func main() {
	cfg, _, err := rconfig.Load("rcom-shell", os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "rcom-shell: %v\n", err)
		os.Exit(1)
	}

	rt, err := rcom.Init(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rcom-shell: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	root := newRootCmd(rt)

	executor := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		if line == "exit" || line == "quit" {
			_ = rt.Close()
			os.Exit(0)
		}

		root.SetArgs(strings.Fields(line))
		if err := root.Execute(); err != nil {
			errorf("rcom-shell: %v\n", err)
		}
	}

	plainf("rcom-shell: connected, %d entries visible\n", len(rt.Mirror()))

	p := prompt.New(
		executor,
		completer,
		prompt.OptionPrefix("rcom> "),
		prompt.OptionTitle("rcom-shell"),
	)
	p.Run()
}
