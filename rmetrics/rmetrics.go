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

// Package rmetrics is the optional Prometheus instrumentation layer: a
// registry/proxy/streamer carries a nil *Metrics by default, and every
// method here tolerates a nil receiver, so wiring it in is a pure
// addition that costs nothing when metrics are disabled (the default in
// standalone mode).
package rmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every gauge/counter the runtime exposes.
type Metrics struct {
	RegistryEntries     *prometheus.GaugeVec
	RegistryEventsTotal *prometheus.CounterVec
	ProxyWiredLinks     *prometheus.GaugeVec
	StreamerDropsTotal  *prometheus.CounterVec
}

// New builds and registers the runtime's metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegistryEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rcom_registry_entries",
				Help: "Number of entries currently held by the registry, by type.",
			},
			[]string{"type"},
		),
		RegistryEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rcom_registry_events_total",
				Help: "Total registry events broadcast to connected proxies, by event.",
			},
			[]string{"event"},
		),
		ProxyWiredLinks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rcom_proxy_wired_links",
				Help: "Number of local endpoints currently wired to a counterpart, by kind.",
			},
			[]string{"kind"},
		),
		StreamerDropsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rcom_streamer_dropped_parts_total",
				Help: "Total multipart parts dropped for a slow streamer client, by topic.",
			},
			[]string{"topic"},
		),
	}

	reg.MustRegister(
		m.RegistryEntries,
		m.RegistryEventsTotal,
		m.ProxyWiredLinks,
		m.StreamerDropsTotal,
	)

	return m
}

// Handler returns the HTTP handler to mount at --metrics-addr.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetRegistryEntries records the current entry count for one type.
func (m *Metrics) SetRegistryEntries(entryType string, count int) {
	if m == nil {
		return
	}
	m.RegistryEntries.WithLabelValues(entryType).Set(float64(count))
}

// IncRegistryEvent records one registry event broadcast.
func (m *Metrics) IncRegistryEvent(event string) {
	if m == nil {
		return
	}
	m.RegistryEventsTotal.WithLabelValues(event).Inc()
}

// IncProxyWiredLinks records one additional wired local endpoint of kind.
func (m *Metrics) IncProxyWiredLinks(kind string) {
	if m == nil {
		return
	}
	m.ProxyWiredLinks.WithLabelValues(kind).Inc()
}

// DecProxyWiredLinks records one fewer wired local endpoint of kind.
func (m *Metrics) DecProxyWiredLinks(kind string) {
	if m == nil {
		return
	}
	m.ProxyWiredLinks.WithLabelValues(kind).Dec()
}

// IncStreamerDropped records one dropped multipart part for topic.
func (m *Metrics) IncStreamerDropped(topic string) {
	if m == nil {
		return
	}
	m.StreamerDropsTotal.WithLabelValues(topic).Inc()
}
