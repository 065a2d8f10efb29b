package pipeline

import (
	"context"
	"time"
)

// Operation is the unit of work the retry policy wraps: typically a
// sink's WriteBatch call over a fixed batch snapshot.
type Operation func(ctx context.Context) error

// Breaker is satisfied by internal/sink/reliability's circuit breaker
// wrapper. It is declared here as a narrow interface so the pipeline
// package carries no dependency on a specific breaker library; a nil
// Breaker simply means "no breaker", not "breaker open".
type Breaker interface {
	Execute(func() (interface{}, error)) (interface{}, error)
}

// RetryPolicy makes at most MaxAttempts attempts in total (the first
// one included), waiting BaseDelay*2^(attempt-1) between attempts. A
// PermanentDeliveryError short-circuits the loop immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	breaker     Breaker
	recorder    Recorder
}

func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) *RetryPolicy {
	return &RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// WithBreaker wraps every invocation of op in b. Returns p for chaining
// at construction time.
func (p *RetryPolicy) WithBreaker(b Breaker) *RetryPolicy {
	p.breaker = b
	return p
}

// WithRecorder attaches an observability recorder notified of each
// retry attempt. Returns p for chaining at construction time.
func (p *RetryPolicy) WithRecorder(r Recorder) *RetryPolicy {
	p.recorder = r
	return p
}

// Execute runs op, retrying retryable failures per the backoff schedule
// until it succeeds, a permanent failure is returned, max attempts are
// exhausted, or ctx is cancelled.
func (p *RetryPolicy) Execute(ctx context.Context, op Operation) error {
	attempt := 0
	for {
		err := p.invoke(ctx, op)
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return err
		}

		attempt++
		if attempt >= p.MaxAttempts {
			return err
		}
		if p.recorder != nil {
			p.recorder.RecordRetry()
		}

		delay := p.BaseDelay * time.Duration(int64(1)<<uint(attempt-1))
		if delay <= 0 {
			continue
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *RetryPolicy) invoke(ctx context.Context, op Operation) error {
	if p.breaker == nil {
		return op(ctx)
	}
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, op(ctx)
	})
	return err
}
