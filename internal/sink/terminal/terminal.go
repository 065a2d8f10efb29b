// Package terminal implements a sink that writes each ingested record
// as a structured log line. Intended for local development and smoke
// testing, not production delivery.
package terminal

import (
	"context"
	"log/slog"

	"github.com/ravndata/ingestgate/internal/pipeline"
)

// Sink logs every record in a batch at info level.
type Sink struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Sink {
	return &Sink{logger: logger}
}

func (s *Sink) WriteBatch(_ context.Context, records []pipeline.Record) error {
	for _, r := range records {
		s.logger.Info("record", "payload", string(r.Bytes()))
	}
	return nil
}
