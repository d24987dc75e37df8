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

package rconfig

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended (with an underscore) to every flag name, upper-
// cased and dash-to-underscore folded, to form the environment variable
// viper binds it to: --registry-port becomes RCOM_REGISTRY_PORT.
const EnvPrefix = "rcom"

// FlagSet builds the pflag.FlagSet carrying every Config flag, matching
// the teacher's own flag-per-field conventions (name, default, usage).
// Unknown flags are tolerated rather than rejected, since a binary built
// on rconfig may be embedding further role-specific flags of its own on
// the same command line.
func FlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.ParseErrorsWhitelist = pflag.ParseErrorsWhitelist{UnknownFlags: true}

	fs.String("name", "", "this node's identity as advertised to its registry")
	fs.String("registry", "", "host[:port] of the registry/proxy this process talks to")
	fs.Uint16("registry-port", DefaultRegistryPort, "port the registry listens on, when --registry carries none")
	fs.Bool("standalone", false, "run without contacting any registry")
	fs.String("log-dir", "", "directory to rotate the log file within; empty logs to console only")
	fs.String("metrics-addr", "", "host:port to serve /metrics on; empty disables metrics")
	fs.String("config", "", "path to an optional config file (json, yaml, toml)")

	return fs
}

// Load parses args against a fresh FlagSet, binds it into a viper
// instance with RCOM_-prefixed environment overrides and an optional
// config file, and decodes the result into a Config. Precedence, high
// to low: explicit flag, environment variable, config file, default -
// matching viper's own precedence rules, which the teacher's config
// package relies on as-is.
func Load(name string, args []string) (Config, *viper.Viper, error) {
	fs := FlagSet(name)
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, nil, err
	}

	if cfg, _ := fs.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, nil, fmt.Errorf("rconfig: reading config file %q: %w", cfg, err)
		}
	}

	c := Default()
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, nil, fmt.Errorf("rconfig: decoding settings: %w", err)
	}

	if !c.Standalone && c.Name == "" {
		return Config{}, nil, fmt.Errorf("rconfig: --name is required unless --standalone is set")
	}

	return c, v, nil
}
