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

// Command rcom-registryd is the standalone central directory server: one
// registry.Registry bound on --registry-port (or whatever --registry
// names), serving every proxy in the fleet until signaled to stop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rcom/rconfig"
	"rcom/registry"
	"rcom/rlog"
	"rcom/rlog/hookconsole"
)

func main() {
	cfg, _, err := rconfig.Load("rcom-registryd", os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "rcom-registryd: %v\n", err)
		os.Exit(1)
	}

	log := rlog.New(os.Stdout)
	rlog.AddHook(log, hookconsole.New())

	addr := cfg.Registry
	if addr == "" {
		addr = fmt.Sprintf("0.0.0.0:%d", cfg.RegistryPort)
	}

	r, err := registry.New(addr, log)
	if err != nil {
		log.Fatal("rcom-registryd: listen %s: %v", addr, err)
	}
	defer r.Close()

	log.Info("rcom-registryd: listening on %s", r.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("rcom-registryd: shutting down")
}
