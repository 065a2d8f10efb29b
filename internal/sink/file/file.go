// Package file implements a sink that appends each batch to a local
// NDJSON file, one record per line.
package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ravndata/ingestgate/internal/pipeline"
)

// Sink appends NDJSON lines to a single file. WriteBatch is atomic
// with respect to other WriteBatch calls on the same Sink: the whole
// batch is buffered and flushed under one lock, so a concurrent reader
// never observes a partial batch split across writes from two callers.
type Sink struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
}

func New(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open sink file %s: %w", path, err)
	}
	return &Sink{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (s *Sink) WriteBatch(_ context.Context, records []pipeline.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if _, err := s.w.Write(r.Bytes()); err != nil {
			return fmt.Errorf("write record to %s: %w", s.path, err)
		}
		if err := s.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline to %s: %w", s.path, err)
		}
	}

	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	return s.f.Sync()
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.f.Close()
}
