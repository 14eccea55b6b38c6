package pipeline

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for classification processing.
type Metrics struct {
	ClassificationsTotal *prometheus.CounterVec
	StageDuration        *prometheus.HistogramVec
	ConflictRetriesTotal *prometheus.CounterVec
	BackfillsTotal       prometheus.Counter
	ActionsTotal         *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline metrics once per process.
//
// Metrics:
//   - caesar_classifications_total{result} - classifications processed, by ok/error
//   - caesar_stage_duration_seconds{stage} - extract, reduce, and rules stage latency
//   - caesar_conflict_retries_total{stage} - upserts retried after a write conflict
//   - caesar_backfills_total - backfill signals for first-seen subjects
//   - caesar_actions_total{action} - rule actions dispatched
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ClassificationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "caesar_classifications_total",
					Help: "Total number of classifications processed",
				},
				[]string{"result"},
			),

			StageDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "caesar_stage_duration_seconds",
					Help:    "Duration of pipeline stages in seconds",
					Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
				},
				[]string{"stage"},
			),

			ConflictRetriesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "caesar_conflict_retries_total",
					Help: "Total number of upserts retried after a write conflict",
				},
				[]string{"stage"},
			),

			BackfillsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "caesar_backfills_total",
					Help: "Total number of backfill signals emitted",
				},
			),

			ActionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "caesar_actions_total",
					Help: "Total number of rule actions dispatched",
				},
				[]string{"action"},
			),
		}
	})

	return globalMetrics
}

// The helpers below accept a nil receiver so metrics stay optional.

func (m *Metrics) observeStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) recordResult(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ClassificationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) recordRetry(stage string) {
	if m == nil {
		return
	}
	m.ConflictRetriesTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) recordBackfill() {
	if m == nil {
		return
	}
	m.BackfillsTotal.Inc()
}

func (m *Metrics) recordAction(action string) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(action).Inc()
}
