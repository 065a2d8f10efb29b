package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravndata/ingestgate/internal/testhelpers"
)

func newTestPipeline(capacity, batchSize int, flushInterval time.Duration, primary, dlq Sink) *Pipeline {
	return New(Config{
		Queue:         NewQueue(capacity),
		BatchSize:     batchSize,
		FlushInterval: flushInterval,
		Primary:       primary,
		DLQ:           dlq,
		Retry:         NewRetryPolicy(3, time.Millisecond),
		Logger:        testhelpers.NewTestLogger(),
	})
}

func TestPipeline_AdmitAndDeliver(t *testing.T) {
	primary := &fakeSink{}
	dlq := &fakeSink{}
	p := newTestPipeline(10, 2, time.Hour, primary, dlq)

	p.Start(context.Background())

	require.NoError(t, p.Admit([]Record{rawRecord("a"), rawRecord("b")}))

	waitFor(t, func() bool { return len(primary.Batches()) == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

func TestPipeline_AdmitRejectsOverCapacity(t *testing.T) {
	primary := &fakeSink{}
	dlq := &fakeSink{}
	p := newTestPipeline(1, 100, time.Hour, primary, dlq)

	p.Start(context.Background())

	err := p.Admit([]Record{rawRecord("a"), rawRecord("b")})
	assert.ErrorIs(t, err, ErrQueueFull)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

func TestPipeline_ShutdownDrainsCurrentBatch(t *testing.T) {
	primary := &fakeSink{}
	dlq := &fakeSink{}
	p := newTestPipeline(10, 100, time.Hour, primary, dlq)

	p.Start(context.Background())
	require.NoError(t, p.Admit([]Record{rawRecord("a"), rawRecord("b"), rawRecord("c")}))

	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	require.Len(t, primary.Batches(), 1)
	assert.Len(t, primary.Batches()[0], 3)
}

func TestPipeline_DLQFailureSurfacesFromShutdown(t *testing.T) {
	primary := &alwaysFailSink{perm: true, msg: "rejected"}
	dlq := &alwaysFailSink{perm: true, msg: "dlq down"}
	p := newTestPipeline(10, 1, time.Hour, primary, dlq)

	p.Start(context.Background())
	require.NoError(t, p.Admit([]Record{rawRecord("a")}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := p.Shutdown(ctx)
	assert.Error(t, err)
}

func TestPipeline_QueueDepthReflectsBacklog(t *testing.T) {
	primary := &fakeSink{}
	dlq := &fakeSink{}
	p := newTestPipeline(10, 100, time.Hour, primary, dlq)

	p.Start(context.Background())
	require.NoError(t, p.Admit([]Record{rawRecord("a")}))

	waitFor(t, func() bool { return p.QueueDepth() == 0 })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}
