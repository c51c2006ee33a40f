// ABOUTME: Prometheus counters for refusals, answers, indexing and evaluation verdicts
// ABOUTME: Methods are nil-safe so components can run without a registry
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the assistant's counters on a private registry
type Metrics struct {
	registry         *prometheus.Registry
	refusals         *prometheus.CounterVec
	answers          prometheus.Counter
	chunksIndexed    prometheus.Counter
	evalItems        *prometheus.CounterVec
	embeddingRetries prometheus.Counter
}

// New creates the counters and registers them with a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refusals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docqa_refusals_total",
			Help: "Questions answered with the not-found response, by reason.",
		}, []string{"reason"}),
		answers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docqa_answers_total",
			Help: "Questions answered with a generated, cited response.",
		}),
		chunksIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docqa_chunks_indexed_total",
			Help: "Chunks written to document indexes.",
		}),
		evalItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docqa_eval_items_total",
			Help: "Evaluated items by kind (summary, qa) and deterministic verdict.",
		}, []string{"kind", "passed"}),
		embeddingRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docqa_embedding_retries_total",
			Help: "Embedding attempts that failed and were retried.",
		}),
	}
	m.registry.MustRegister(m.refusals, m.answers, m.chunksIndexed, m.evalItems, m.embeddingRetries)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Refused counts a refusal with its reason
func (m *Metrics) Refused(reason string) {
	if m == nil {
		return
	}
	m.refusals.WithLabelValues(reason).Inc()
}

// Answered counts a generated answer that passed validation
func (m *Metrics) Answered() {
	if m == nil {
		return
	}
	m.answers.Inc()
}

// ChunksIndexed adds n indexed chunks
func (m *Metrics) ChunksIndexed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.chunksIndexed.Add(float64(n))
}

// Evaluated counts one evaluated item
func (m *Metrics) Evaluated(kind string, passed bool) {
	if m == nil {
		return
	}
	m.evalItems.WithLabelValues(kind, strconv.FormatBool(passed)).Inc()
}

// EmbeddingRetried counts a retried embedding attempt
func (m *Metrics) EmbeddingRetried() {
	if m == nil {
		return
	}
	m.embeddingRetries.Inc()
}
