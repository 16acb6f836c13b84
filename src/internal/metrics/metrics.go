// FILE: logsproxy/src/internal/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const namespace = "logsproxy"

// Metrics holds the Prometheus collectors of the gateway on a private
// registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	records  prometheus.Counter
	spans    prometheus.Counter
	upstream *prometheus.HistogramVec
	handler  fasthttp.RequestHandler
}

// New registers all collectors, including Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Inbound HTTP requests by route and response status.",
		}, []string{"route", "code"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_records_total",
			Help:      "Log records received on the log endpoint.",
		}),
		spans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spans_total",
			Help:      "Spans produced by translation.",
		}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of upstream requests by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}

	m.reg.MustRegister(
		m.requests,
		m.records,
		m.spans,
		m.upstream,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m.handler = fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}),
	)
	return m
}

// ObserveRequest counts one finished inbound request
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// AddTranslated counts the records and spans of one translated request
func (m *Metrics) AddTranslated(records, spans int) {
	if m == nil {
		return
	}
	m.records.Add(float64(records))
	m.spans.Add(float64(spans))
}

// ObserveUpstream records an upstream call. outcome is "ok", "rejected" for
// a non-2xx answer, or "error" for transport failures.
func (m *Metrics) ObserveUpstream(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(outcome).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() fasthttp.RequestHandler {
	return m.handler
}

// Registry exposes the underlying registry for gathering in tests and
// embedding
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
