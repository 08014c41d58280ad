// Package metrics provides Prometheus metrics for the askpdf backend.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the ingestion and retrieval
// pipelines.
type Metrics struct {
	DocumentsIngestedTotal *prometheus.CounterVec
	IngestDuration         prometheus.Histogram
	QuestionsTotal         *prometheus.CounterVec
	AskDuration            prometheus.Histogram

	EmbeddingCacheHitsTotal   prometheus.Counter
	EmbeddingCacheMissesTotal prometheus.Counter
	EmbeddingErrorsTotal      prometheus.Counter

	DocumentsRegistered prometheus.Gauge
}

// New creates the collectors and registers them with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "askpdf_documents_ingested_total",
				Help: "Total number of document ingestion attempts",
			},
			[]string{"status"},
		),
		IngestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "askpdf_ingest_duration_seconds",
				Help:    "Duration of document ingestion in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		QuestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "askpdf_questions_total",
				Help: "Total number of questions asked",
			},
			[]string{"status"},
		),
		AskDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "askpdf_ask_duration_seconds",
				Help:    "Duration of question answering in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		EmbeddingCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "askpdf_embedding_cache_hits_total",
				Help: "Total number of embedding cache hits",
			},
		),
		EmbeddingCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "askpdf_embedding_cache_misses_total",
				Help: "Total number of embedding cache misses",
			},
		),
		EmbeddingErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "askpdf_embedding_errors_total",
				Help: "Total number of embedding service failures",
			},
		),
		DocumentsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "askpdf_documents_registered",
				Help: "Number of documents currently registered",
			},
		),
	}

	reg.MustRegister(
		m.DocumentsIngestedTotal,
		m.IngestDuration,
		m.QuestionsTotal,
		m.AskDuration,
		m.EmbeddingCacheHitsTotal,
		m.EmbeddingCacheMissesTotal,
		m.EmbeddingErrorsTotal,
		m.DocumentsRegistered,
	)
	return m
}

// RecordIngest records one ingestion attempt.
func (m *Metrics) RecordIngest(status string, duration time.Duration) {
	m.DocumentsIngestedTotal.WithLabelValues(status).Inc()
	m.IngestDuration.Observe(duration.Seconds())
}

// RecordAsk records one answered (or failed) question.
func (m *Metrics) RecordAsk(status string, duration time.Duration) {
	m.QuestionsTotal.WithLabelValues(status).Inc()
	m.AskDuration.Observe(duration.Seconds())
}
