/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package rconfig is the CLI/env/file bootstrap shared by every rcom
// binary: registry daemon, proxy, and node processes. It defines the
// handful of settings every process needs regardless of role - who it
// is, where its registry lives, whether it runs standalone - and leaves
// anything role-specific to the binary itself.
package rconfig

// Config is the bootstrap settings every rcom process parses before
// doing anything else. Fields are tagged for both viper (mapstructure)
// and JSON so a generated config file round-trips.
type Config struct {
	// Name is this node's identity as advertised to its registry. Required
	// unless Standalone is set.
	Name string `mapstructure:"name" json:"name"`

	// Registry is the host[:port] of the registry/proxy this process
	// directs its directory traffic to. Ignored when Standalone is set.
	Registry string `mapstructure:"registry" json:"registry"`

	// RegistryPort is the UDP/TCP port the registry listens on when
	// Registry carries no explicit port of its own.
	RegistryPort uint16 `mapstructure:"registry-port" json:"registry_port"`

	// Standalone runs this process without contacting any registry -
	// every directory operation resolves against a local, empty table.
	Standalone bool `mapstructure:"standalone" json:"standalone"`

	// LogDir is the directory rlog/hookfile rotates its log file within.
	// Empty means console-only logging.
	LogDir string `mapstructure:"log-dir" json:"log_dir"`

	// MetricsAddr, when non-empty, is the host:port the façade serves
	// /metrics (Prometheus text format) on. Empty disables the endpoint,
	// the default in standalone mode.
	MetricsAddr string `mapstructure:"metrics-addr" json:"metrics_addr"`
}

// DefaultRegistryPort is the well-known port a registry listens on when
// no --registry-port is given, matching the directory service's default
// advertised in the registry/proxy module.
const DefaultRegistryPort uint16 = 10101

// Default returns the zero-value Config with every field set to the
// value a bare invocation (no flags, no env, no config file) resolves
// to.
func Default() Config {
	return Config{
		RegistryPort: DefaultRegistryPort,
	}
}
