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

// Package rcom is the top-level façade every binary in this tree bootstraps
// through: Init parses nothing itself (that is rconfig's job) but takes the
// already-parsed Config and turns it into a running Runtime - a logger, a
// Proxy dialed to the registry (or standalone), and, if requested, a metrics
// listener. Every Open* method here mirrors proxy.Proxy's own, so a caller
// never needs to reach past the façade into the proxy package directly.
package rcom

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rcom/datahub"
	"rcom/datalink"
	"rcom/messagehub"
	"rcom/proxy"
	"rcom/rconfig"
	"rcom/rctx"
	"rcom/registry"
	rerr "rcom/rerrors"
	"rcom/rlog"
	"rcom/rlog/hookconsole"
	"rcom/rlog/hookfile"
	"rcom/rmetrics"
	"rcom/service"
	"rcom/streamer"
	"rcom/streamerlink"
)

// Runtime ties together everything a process calling Init needs: the
// cancellation source every opened endpoint derives from, the Proxy those
// opens go through, the logger they share, and (when enabled) the metrics
// recorder and its HTTP listener.
type Runtime struct {
	rt      rctx.Runtime
	proxy   *proxy.Proxy
	log     rlog.Logger
	metrics *rmetrics.Metrics

	metricsSrv  *http.Server
	metricsAddr string
}

// Init builds the logger rcfg's LogDir describes (console always, file
// additionally when LogDir is non-empty), dials the Proxy at rcfg.Registry
// (or builds a standalone one when rcfg.Standalone is set), and - when
// rcfg.MetricsAddr is non-empty - starts the /metrics listener. The returned
// Runtime owns all of it; Close tears it down in reverse order.
func Init(rcfg rconfig.Config) (*Runtime, error) {
	log := rlog.New(io.Discard)
	rlog.AddHook(log, hookconsole.New())

	if rcfg.LogDir != "" {
		path := filepath.Join(rcfg.LogDir, rcfg.Name+".log")
		h, err := hookfile.New(path)
		if err != nil {
			return nil, rerr.Newf(rerr.InvalidArgument.Uint16(), "rcom: opening log file %q: %v", path, err)
		}
		rlog.AddHook(log, h)
	}

	var px *proxy.Proxy
	if rcfg.Standalone {
		px = proxy.Standalone(log)
	} else {
		addr := rcfg.Registry
		if addr == "" {
			return nil, rerr.New(rerr.InvalidArgument.Uint16(), "rcom: --registry is required unless --standalone is set")
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = fmt.Sprintf("%s:%d", addr, rcfg.RegistryPort)
		}

		var err error
		px, err = proxy.Open(addr, log)
		if err != nil {
			return nil, err
		}
	}

	r := &Runtime{
		rt:    rctx.New(nil),
		proxy: px,
		log:   log,
	}

	if rcfg.MetricsAddr != "" {
		r.metrics = rmetrics.New(prometheus.DefaultRegisterer)
		px.SetMetrics(r.metrics)
		if err := r.startMetrics(rcfg.MetricsAddr); err != nil {
			_ = px.Close()
			return nil, err
		}
	}

	return r, nil
}

func (r *Runtime) startMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rmetrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return rerr.Newf(rerr.NetworkUnreachable.Uint16(), "rcom: metrics listen %s: %v", addr, err)
	}

	r.metricsSrv = srv
	r.metricsAddr = ln.Addr().String()
	go func() {
		_ = srv.Serve(ln)
	}()

	go func() {
		<-r.rt.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	return nil
}

// Runtime returns the rctx.Runtime every endpoint this façade opens is
// derived from; closing it (via Close, or directly) cancels every child.
func (r *Runtime) Runtime() rctx.Runtime {
	return r.rt
}

// Logger returns the shared logger every endpoint this façade opens was
// handed at construction time.
func (r *Runtime) Logger() rlog.Logger {
	return r.log
}

// Metrics returns the attached recorder, or nil if none was enabled.
func (r *Runtime) Metrics() *rmetrics.Metrics {
	return r.metrics
}

// MetricsAddr returns the actual address the metrics listener bound to
// (useful when MetricsAddr was given with a ":0" ephemeral port), or "" if
// no metrics listener was started.
func (r *Runtime) MetricsAddr() string {
	return r.metricsAddr
}

// Mirror returns the Proxy's current view of the registry.
func (r *Runtime) Mirror() []registry.Entry {
	return r.proxy.Mirror()
}

// OpenDatalink opens a Datalink endpoint under name/topic.
func (r *Runtime) OpenDatalink(name, topic string, onData datalink.OnData) (*datalink.Datalink, *proxy.Endpoint, error) {
	return r.proxy.OpenDatalink(r.rt.Child(), r.log, name, topic, onData)
}

// OpenDatahub opens a Datahub endpoint under name/topic.
func (r *Runtime) OpenDatahub(name, topic string, onData datahub.OnData, onBroadcast datahub.OnBroadcast) (*datahub.Datahub, *proxy.Endpoint, error) {
	return r.proxy.OpenDatahub(r.rt.Child(), r.log, name, topic, onData, onBroadcast)
}

// OpenMessagehub binds a Messagehub on bindAddr under name/topic.
func (r *Runtime) OpenMessagehub(bindAddr, name, topic string, onConnect messagehub.OnConnect, onMessage messagehub.OnMessage) (*messagehub.Messagehub, *proxy.Endpoint, error) {
	return r.proxy.OpenMessagehub(bindAddr, name, topic, r.log, onConnect, onMessage)
}

// OpenMessagelink opens a Messagelink dialing whatever Messagehub is
// registered on topic.
func (r *Runtime) OpenMessagelink(name, topic string, onMessage proxy.OnMessage) (*proxy.Messagelink, *proxy.Endpoint, error) {
	return r.proxy.OpenMessagelink(name, topic, onMessage, r.log)
}

// OpenStreamer binds a Streamer on bindAddr under name/topic/mimeType.
func (r *Runtime) OpenStreamer(bindAddr, name, topic, mimeType string, onClient streamer.OnClient, onBroadcast streamer.OnBroadcast) (*streamer.Streamer, *proxy.Endpoint, error) {
	return r.proxy.OpenStreamer(bindAddr, name, topic, mimeType, r.log, onClient, onBroadcast)
}

// OpenStreamerlink opens a Streamerlink pulling from whatever Streamer is
// registered on topic.
func (r *Runtime) OpenStreamerlink(name, topic string, onData streamerlink.OnData, autoconnect bool) (*streamerlink.Streamerlink, *proxy.Endpoint, error) {
	return r.proxy.OpenStreamerlink(name, topic, onData, autoconnect, r.log)
}

// OpenService binds a Service on bindAddr under name/topic. Every Service
// this façade (or the Proxy underneath it) opens answers /service/health
// on its own, with no further wiring required.
func (r *Runtime) OpenService(bindAddr, name, topic string) (*service.Service, *proxy.Endpoint, error) {
	return r.proxy.OpenService(bindAddr, name, topic, r.log)
}

// Close cancels every endpoint this Runtime opened, stops the metrics
// listener if one was started, and closes the underlying Proxy.
func (r *Runtime) Close() error {
	r.rt.Cancel()

	if r.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = r.metricsSrv.Shutdown(ctx)
	}

	return r.proxy.Close()
}

// shutdownGrace bounds how long Close waits for the metrics listener's
// in-flight scrape, if any, to finish before the caller moves on.
const shutdownGrace = 2 * time.Second
