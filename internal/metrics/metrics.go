/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package metrics exposes the event loop's vitals to Prometheus. It is a
// sidecar: the scrape endpoint is served over net/http on its own port,
// entirely separate from the hand-rolled readiness loop that serves real
// traffic, so a slow scraper can never compete with a client for the
// event loop's single thread.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every counter and gauge the event loop and CGI gateway
// update during normal operation.
type Registry struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ActiveConnections prometheus.Gauge
	CGIInvocations    *prometheus.CounterVec
	CGITimeouts       prometheus.Counter

	registry *prometheus.Registry
}

// New registers and returns a fresh Registry against its own prometheus
// registry (not the global default, so multiple servers in one process
// never collide).
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "webserv_requests_total",
			Help: "Total HTTP requests handled, labeled by method and status class.",
		}, []string{"method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webserv_request_duration_seconds",
			Help:    "Request handling latency spent inside the handler's Dispatch.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "webserv_active_connections",
			Help: "Connections currently owned by the event loop.",
		}),
		CGIInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "webserv_cgi_invocations_total",
			Help: "CGI script invocations, labeled by outcome.",
		}, []string{"outcome"}),
		CGITimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "webserv_cgi_timeouts_total",
			Help: "CGI invocations killed for exceeding the wall-clock deadline.",
		}),
	}

	r.registry = reg
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed request's method, status class and
// handling latency. Called by handler.Handler.Dispatch once per request.
func (r *Registry) ObserveRequest(method string, status int, duration time.Duration) {
	r.RequestsTotal.WithLabelValues(method, statusClass(status)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveCGI records one CGI invocation's outcome ("success", "timeout" or
// "bad_gateway"). Called by cgi.Gateway.Execute.
func (r *Registry) ObserveCGI(outcome string) {
	r.CGIInvocations.WithLabelValues(outcome).Inc()
	if outcome == "timeout" {
		r.CGITimeouts.Inc()
	}
}

// ConnectionOpened and ConnectionClosed track connections currently owned
// by the event loop. Called by eventloop.Loop's accept and close paths.
func (r *Registry) ConnectionOpened() { r.ActiveConnections.Inc() }
func (r *Registry) ConnectionClosed() { r.ActiveConnections.Dec() }

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
