package pipeline

import (
	"errors"
	"fmt"
)

// ErrQueueFull is returned by Queue.Admit when admitting the given
// records would push the queue past capacity. No records are enqueued
// in that case; admission is all-or-nothing.
var ErrQueueFull = errors.New("ingestion queue capacity exhausted")

// RetryableDeliveryError signals a transient sink failure. The retry
// policy backs off and tries again if attempts remain.
type RetryableDeliveryError struct {
	Err error
}

func (e *RetryableDeliveryError) Error() string {
	return fmt.Sprintf("retryable delivery error: %v", e.Err)
}

func (e *RetryableDeliveryError) Unwrap() error { return e.Err }

// PermanentDeliveryError signals a non-recoverable sink failure. The
// retry policy must not retry; the batch escalates to the DLQ
// immediately.
type PermanentDeliveryError struct {
	Err error
}

func (e *PermanentDeliveryError) Error() string {
	return fmt.Sprintf("permanent delivery error: %v", e.Err)
}

func (e *PermanentDeliveryError) Unwrap() error { return e.Err }

// isPermanent reports whether err must not be retried. Every other
// error, including one a sink returns without classifying it, is
// treated as retryable.
func isPermanent(err error) bool {
	var perm *PermanentDeliveryError
	return errors.As(err, &perm)
}
