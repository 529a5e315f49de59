package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics emitted by the tracing library.
type Metrics struct {
	// Span metrics
	SpansTotal   *prometheus.CounterVec
	SpanDuration *prometheus.HistogramVec

	// Store metrics
	WritesTotal prometheus.Counter
	WriteErrors prometheus.Counter

	// Load metrics
	RecordsLoaded    prometheus.Counter
	MalformedRecords prometheus.Counter
}

// NewMetrics creates a metrics collector registered on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector registered on reg.
// Tests pass a fresh registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SpansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "traicing_spans_total",
				Help: "Total number of spans finalized, by type and status",
			},
			[]string{"type", "status"},
		),
		SpanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "traicing_span_duration_seconds",
				Help:    "Span duration in seconds, by type",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		WritesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "traicing_store_writes_total",
				Help: "Total number of records appended to the log store",
			},
		),
		WriteErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "traicing_store_write_errors_total",
				Help: "Total number of failed log store writes",
			},
		),
		RecordsLoaded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "traicing_records_loaded_total",
				Help: "Total number of records successfully loaded from the log",
			},
		),
		MalformedRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "traicing_malformed_records_total",
				Help: "Total number of malformed log lines skipped during load",
			},
		),
	}
}

// ObserveSpan records one finalized span.
func (m *Metrics) ObserveSpan(spanType, status string, seconds float64) {
	if m == nil {
		return
	}
	m.SpansTotal.WithLabelValues(spanType, status).Inc()
	m.SpanDuration.WithLabelValues(spanType).Observe(seconds)
}

// ObserveWrite records one store append attempt.
func (m *Metrics) ObserveWrite(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.WriteErrors.Inc()
		return
	}
	m.WritesTotal.Inc()
}

// ObserveLoad records the outcome of decoding one log line.
func (m *Metrics) ObserveLoad(malformed bool) {
	if m == nil {
		return
	}
	if malformed {
		m.MalformedRecords.Inc()
		return
	}
	m.RecordsLoaded.Inc()
}
