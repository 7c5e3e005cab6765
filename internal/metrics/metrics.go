// Package metrics exposes Prometheus counters for the enrichment and import
// pipelines. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes.
const (
	LookupFound    = "found"
	LookupNotFound = "not_found"
	LookupError    = "error"
	LookupCached   = "cached"
)

// Import row outcomes.
const (
	RowInserted = "inserted"
	RowUpdated  = "updated"
	RowSkipped  = "skipped"
	RowFailed   = "failed"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	lookups       *prometheus.CounterVec
	scans         prometheus.Counter
	scanErrors    prometheus.Counter
	suggestions   *prometheus.CounterVec
	appliedFields *prometheus.CounterVec
	importRows    *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wodagoat",
			Name:      "lookups_total",
			Help:      "External summary lookups by outcome.",
		}, []string{"outcome"}),
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wodagoat",
			Name:      "enrichment_athletes_scanned_total",
			Help:      "Athletes processed by enrichment scans.",
		}),
		scanErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wodagoat",
			Name:      "enrichment_scan_errors_total",
			Help:      "Per-athlete enrichment failures.",
		}),
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wodagoat",
			Name:      "enrichment_suggestions_total",
			Help:      "Suggestions emitted by field.",
		}, []string{"field"}),
		appliedFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wodagoat",
			Name:      "enrichment_applied_fields_total",
			Help:      "Approved suggestion fields written by field.",
		}, []string{"field"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wodagoat",
			Name:      "import_rows_total",
			Help:      "Bulk import rows by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.lookups, m.scans, m.scanErrors, m.suggestions, m.appliedFields, m.importRows,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Lookup(outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AthleteScanned(failed bool) {
	if m == nil {
		return
	}
	m.scans.Inc()
	if failed {
		m.scanErrors.Inc()
	}
}

func (m *Metrics) Suggested(field string) {
	if m == nil {
		return
	}
	m.suggestions.WithLabelValues(field).Inc()
}

func (m *Metrics) Applied(field string) {
	if m == nil {
		return
	}
	m.appliedFields.WithLabelValues(field).Inc()
}

// ImportRows adds n rows with the given outcome.
func (m *Metrics) ImportRows(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRows.WithLabelValues(outcome).Add(float64(n))
}
