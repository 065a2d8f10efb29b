// Package metrics exposes the ingestion gateway's prometheus
// instrumentation. The pipeline never reads these back; they are
// passive observability only.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingestgate_queue_depth",
			Help: "Current number of records held in the admission queue",
		},
	)

	AdmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestgate_admissions_total",
			Help: "Total number of admission calls by outcome",
		},
		[]string{"outcome"},
	)

	FlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestgate_flushes_total",
			Help: "Total number of batch flushes by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingestgate_flush_duration_seconds",
			Help:    "Time spent delivering a batch to the primary sink",
			Buckets: prometheus.DefBuckets,
		},
	)

	RetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestgate_retries_total",
			Help: "Total number of retry attempts issued by the retry policy",
		},
	)

	DLQWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestgate_dlq_writes_total",
			Help: "Total number of batches routed to the dead-letter sink, by outcome",
		},
		[]string{"outcome"},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingestgate_batch_size",
			Help:    "Size of flushed batches",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)
)

// Recorder gates metric updates behind an enabled flag, so a disabled
// deployment pays no promauto overhead for updates that never happen.
type Recorder struct {
	enabled bool
}

func New(enabled bool) *Recorder {
	return &Recorder{enabled: enabled}
}

func (r *Recorder) SetQueueDepth(depth int) {
	if !r.enabled {
		return
	}
	QueueDepth.Set(float64(depth))
}

func (r *Recorder) RecordAdmission(accepted bool) {
	if !r.enabled {
		return
	}
	outcome := "accepted"
	if !accepted {
		outcome = "rejected_queue_full"
	}
	AdmissionsTotal.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordFlush(trigger string, size int, duration time.Duration, routedToDLQ bool) {
	if !r.enabled {
		return
	}
	outcome := "delivered"
	if routedToDLQ {
		outcome = "dlq"
	}
	FlushesTotal.WithLabelValues(trigger, outcome).Inc()
	FlushDuration.Observe(duration.Seconds())
	BatchSize.Observe(float64(size))
}

func (r *Recorder) RecordRetry() {
	if !r.enabled {
		return
	}
	RetriesTotal.Inc()
}

func (r *Recorder) RecordDLQWrite(err error) {
	if !r.enabled {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	DLQWritesTotal.WithLabelValues(outcome).Inc()
}
