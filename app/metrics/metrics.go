package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hann12-34/discovr-ingest/app/event"
)

const (
	BatchStatusCompleted = "completed"
	BatchStatusFailed    = "failed"
	BatchStatusCancelled = "cancelled"
)

// Metrics holds the ingest collectors on their own registry so tests can
// create as many as they like.
type Metrics struct {
	registry      *prometheus.Registry
	records       *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	batches       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.records = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovr",
		Subsystem: "ingest",
		Name:      "records_total",
		Help:      "Candidate records processed, by outcome",
	}, []string{"source", "outcome"})
	m.batchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "discovr",
		Subsystem: "ingest",
		Name:      "batch_duration_seconds",
		Help:      "Time spent ingesting one batch",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"source"})
	m.batches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovr",
		Subsystem: "ingest",
		Name:      "batches_total",
		Help:      "Batches ingested, by final status",
	}, []string{"source", "status"})

	m.registry.MustRegister(
		m.records, m.batchDuration, m.batches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveBatch records one finished batch.
func (m *Metrics) ObserveBatch(source string, summary event.Summary, status string, elapsed time.Duration) {
	if m == nil {
		return
	}

	outcomes := map[string]int{
		"inserted":                              summary.InsertedNew,
		"merged":                                summary.MergedDuplicate,
		string(event.ReasonJunkTitle):           summary.RejectedJunkTitle,
		string(event.ReasonJunkDate):            summary.RejectedJunkDate,
		string(event.ReasonUnparseableDate):     summary.RejectedUnparseableDate,
		string(event.ReasonDateOutOfWindow):     summary.RejectedOutOfWindow,
		string(event.ReasonMissingVenue):        summary.RejectedMissingVenue,
		string(event.ReasonPersistenceConflict): summary.PersistenceConflicts,
	}
	for outcome, n := range outcomes {
		if n > 0 {
			m.records.WithLabelValues(source, outcome).Add(float64(n))
		}
	}

	m.batchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.batches.WithLabelValues(source, status).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
