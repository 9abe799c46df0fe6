// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package telemetry owns the Prometheus collectors for outbound calls,
// inbound API requests and streamed chat output.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arxivpulse"

// Metrics holds the collectors and the registry they are registered on.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	apiRequests      *prometheus.CounterVec
	apiDuration      *prometheus.HistogramVec
	streamChunks     prometheus.Counter
	streamFailures   prometheus.Counter
	papersDecoded    prometheus.Counter
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outbound requests by external service, method and status code.",
		}, []string{"service", "code", "method"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Time to response headers for outbound requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Inbound API requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Inbound API request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		streamChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_stream_chunks_total",
			Help:      "Text chunks written to chat event streams.",
		}),
		streamFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_stream_failures_total",
			Help:      "Chat streams terminated with an error frame.",
		}),
		papersDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_decoded_total",
			Help:      "Paper records decoded from discovery feeds.",
		}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.upstreamRequests,
		m.upstreamDuration,
		m.apiRequests,
		m.apiDuration,
		m.streamChunks,
		m.streamFailures,
		m.papersDecoded,
	)
	return m
}

// Transport wraps next so every round trip is counted and timed under
// the given service label. A nil next means http.DefaultTransport.
func (m *Metrics) Transport(service string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if m == nil {
		return next
	}
	labels := prometheus.Labels{"service": service}
	return promhttp.InstrumentRoundTripperCounter(
		m.upstreamRequests.MustCurryWith(labels),
		promhttp.InstrumentRoundTripperDuration(m.upstreamDuration.MustCurryWith(labels), next),
	)
}

// Client returns an *http.Client with the given timeout whose transport
// is instrumented under service.
func (m *Metrics) Client(service string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: m.Transport(service, nil),
	}
}

// ObserveAPI records one inbound request.
func (m *Metrics) ObserveAPI(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.apiDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// StreamChunk counts one chunk written to a chat stream.
func (m *Metrics) StreamChunk() {
	if m == nil {
		return
	}
	m.streamChunks.Inc()
}

// StreamFailure counts one chat stream that ended with an error frame.
func (m *Metrics) StreamFailure() {
	if m == nil {
		return
	}
	m.streamFailures.Inc()
}

// PapersDecoded adds n decoded paper records.
func (m *Metrics) PapersDecoded(n int) {
	if m == nil {
		return
	}
	m.papersDecoded.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
