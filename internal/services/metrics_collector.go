package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector exposes the engine's operational metrics through the
// process-wide Prometheus registry. Construction is idempotent: a second
// collector reuses the already registered metrics.
type MetricsCollector struct {
	rankingRequests *prometheus.CounterVec
	rankingLatency  prometheus.Histogram
	catalogDropped  prometheus.Counter
	modelTrainings  *prometheus.CounterVec
	persistFailures prometheus.Counter
}

func NewMetricsCollector() *MetricsCollector {
	rankingRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voltmatch_ranking_requests_total",
		Help: "Ranking requests by outcome reason",
	}, []string{"outcome"})
	if existing, ok := register(rankingRequests).(*prometheus.CounterVec); ok {
		rankingRequests = existing
	}

	rankingLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "voltmatch_ranking_duration_seconds",
		Help:    "End-to-end ranking pipeline latency",
		Buckets: prometheus.DefBuckets,
	})
	if existing, ok := register(rankingLatency).(prometheus.Histogram); ok {
		rankingLatency = existing
	}

	catalogDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "voltmatch_catalog_rows_dropped_total",
		Help: "Catalog rows dropped during numeric cleaning",
	})
	if existing, ok := register(catalogDropped).(prometheus.Counter); ok {
		catalogDropped = existing
	}

	modelTrainings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voltmatch_segment_model_trainings_total",
		Help: "Segment model training runs by result",
	}, []string{"result"})
	if existing, ok := register(modelTrainings).(*prometheus.CounterVec); ok {
		modelTrainings = existing
	}

	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "voltmatch_record_persist_failures_total",
		Help: "User record writes that failed and were dropped",
	})
	if existing, ok := register(persistFailures).(prometheus.Counter); ok {
		persistFailures = existing
	}

	return &MetricsCollector{
		rankingRequests: rankingRequests,
		rankingLatency:  rankingLatency,
		catalogDropped:  catalogDropped,
		modelTrainings:  modelTrainings,
		persistFailures: persistFailures,
	}
}

// register adds a collector to the default registry, returning the
// previously registered collector when one already exists.
func register(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return nil
}

func (m *MetricsCollector) ObserveRanking(outcome OutcomeReason, duration time.Duration) {
	if m == nil {
		return
	}
	m.rankingRequests.WithLabelValues(string(outcome)).Inc()
	m.rankingLatency.Observe(duration.Seconds())
}

func (m *MetricsCollector) CatalogRowsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.catalogDropped.Add(float64(n))
}

func (m *MetricsCollector) ModelTraining(result string) {
	if m == nil {
		return
	}
	m.modelTrainings.WithLabelValues(result).Inc()
}

func (m *MetricsCollector) PersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}
