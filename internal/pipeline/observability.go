package pipeline

import "time"

// Recorder receives passive observability callbacks from the pipeline.
// It is satisfied by internal/metrics.Recorder; kept as an interface
// here so the pipeline carries no dependency on prometheus.
type Recorder interface {
	SetQueueDepth(depth int)
	RecordAdmission(accepted bool)
	RecordFlush(trigger string, size int, duration time.Duration, routedToDLQ bool)
	RecordRetry()
	RecordDLQWrite(err error)
}
