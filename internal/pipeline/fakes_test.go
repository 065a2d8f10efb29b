package pipeline

import (
	"context"
	"errors"
	"sync"
)

// fakeSink is a test double recording every batch it receives. failN
// controls how many leading calls fail with err (or a generic
// retryable error if err is nil) before succeeding.
type fakeSink struct {
	mu      sync.Mutex
	batches [][]Record
	calls   int
	failN   int
	err     error
}

func (s *fakeSink) WriteBatch(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.calls <= s.failN {
		if s.err != nil {
			return s.err
		}
		return &RetryableDeliveryError{Err: errors.New("sink unavailable")}
	}

	cp := make([]Record, len(records))
	copy(cp, records)
	s.batches = append(s.batches, cp)
	return nil
}

func (s *fakeSink) Batches() [][]Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]Record, len(s.batches))
	copy(out, s.batches)
	return out
}

func (s *fakeSink) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// alwaysFailSink fails every call, classified as permanent when perm
// is true.
type alwaysFailSink struct {
	perm bool
	msg  string
}

func (s *alwaysFailSink) WriteBatch(_ context.Context, _ []Record) error {
	err := errors.New(s.msg)
	if s.perm {
		return &PermanentDeliveryError{Err: err}
	}
	return &RetryableDeliveryError{Err: err}
}

func rawRecord(s string) Record {
	return NewRecord([]byte(`"` + s + `"`))
}
