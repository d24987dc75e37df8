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
	"time"

	"github.com/spf13/cobra"

	"rcom"
	"rcom/registry"
)

// newRootCmd builds the cobra command tree the REPL re-parses one line at a
// time. cobra is built for a single Execute per process, but nothing stops
// rebuilding the tree on every line and calling Execute once per line - the
// command closures all close over rt, never over cobra's own process-global
// state.
func newRootCmd(rt *rcom.Runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "rcom-shell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newListCmd(rt))
	root.AddCommand(newInspectCmd(rt))
	root.AddCommand(newWatchCmd(rt))

	return root
}

func newListCmd(rt *rcom.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every entry the registry currently holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			printEntries(rt.Mirror())
			return nil
		},
	}
}

func newInspectCmd(rt *rcom.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <id>",
		Short: "print every field of one registry entry by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			for _, e := range rt.Mirror() {
				if e.ID == id {
					c := entryColor(e.Type)
					printf(c, "id:    %s\n", e.ID)
					printf(c, "name:  %s\n", e.Name)
					printf(c, "topic: %s\n", e.Topic)
					printf(c, "type:  %s\n", e.Type)
					printf(c, "addr:  %s\n", e.Addr)
					return nil
				}
			}
			return fmt.Errorf("no entry with id %q", id)
		},
	}
}

func newWatchCmd(rt *rcom.Runtime) *cobra.Command {
	var seconds int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "poll the registry and print entries as they appear or vanish",
		RunE: func(cmd *cobra.Command, args []string) error {
			watch(rt, time.Duration(seconds)*time.Second)
			return nil
		},
	}
	cmd.Flags().IntVar(&seconds, "seconds", 5, "how long to watch before returning to the prompt")
	return cmd
}

// watch polls Mirror once per second for the given duration, printing only
// entries that were not present on the previous poll - a diff, not a
// repeated full listing, since the fleet is expected to be mostly stable
// between polls.
func watch(rt *rcom.Runtime, d time.Duration) {
	seen := map[string]registry.Entry{}
	for _, e := range rt.Mirror() {
		seen[e.ID] = e
	}
	if len(seen) > 0 {
		plainf("watching, %d entries already present:\n", len(seen))
		printEntries(rt.Mirror())
	} else {
		plainf("watching, registry currently empty\n")
	}

	deadline := time.Now().Add(d)
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for now := range tick.C {
		if now.After(deadline) {
			return
		}

		current := map[string]registry.Entry{}
		for _, e := range rt.Mirror() {
			current[e.ID] = e
		}

		for id, e := range current {
			if _, ok := seen[id]; !ok {
				printf(entryColor(e.Type), "+ %-12s %-20s %-20s %s\n", e.Type, e.Name, e.Topic, e.Addr)
			}
		}
		for id, e := range seen {
			if _, ok := current[id]; !ok {
				printf(dimColor(), "- %-12s %-20s %-20s %s\n", e.Type, e.Name, e.Topic, e.Addr)
			}
		}

		seen = current
	}
}

func printEntries(entries []registry.Entry) {
	if len(entries) == 0 {
		plainf("(no entries)\n")
		return
	}
	for _, e := range entries {
		printf(entryColor(e.Type), "%-36s %-12s %-20s %-20s %s\n", e.ID, e.Type, e.Name, e.Topic, e.Addr)
	}
}
