// Package reliability wraps a sink's primary delivery operation in a
// circuit breaker, so a sink that is failing consistently stops being
// hammered while the retry policy's backoff still runs its course.
package reliability

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker"

	"github.com/ravndata/ingestgate/internal/pipeline"
)

// Breaker adapts a sony/gobreaker circuit breaker to the
// pipeline.Breaker interface. When the breaker is open, Execute
// returns a RetryableDeliveryError rather than gobreaker's raw
// ErrOpenState, so the retry policy's existing error taxonomy
// classifies it the same way as any other transient sink failure.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New returns a breaker that opens after consecutiveFailures in a row
// and stays open for openDuration before allowing a trial request.
func New(name string, consecutiveFailures uint32, openDuration time.Duration) *Breaker {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: openDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

var _ pipeline.Breaker = (*Breaker)(nil)

func (b *Breaker) Execute(op func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(op)
	if err != nil && errors.Is(err, gobreaker.ErrOpenState) {
		return nil, &pipeline.RetryableDeliveryError{Err: err}
	}
	return result, err
}

// State reports the breaker's current state name, for diagnostics.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
