// Package dlq supports reading back records previously routed to a
// file-backed dead-letter destination, for the operator CLI's inspect
// and replay subcommands. Writing to the DLQ is done through the same
// file or postgres sink used for the primary destination -- the DLQ is
// just another configured Sink, not a distinct implementation.
package dlq

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ravndata/ingestgate/internal/pipeline"
)

// Reader scans a file-backed DLQ's NDJSON contents.
type Reader struct {
	path string
}

func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// ReadAll returns every record currently parked in the DLQ file, in
// the order they were written.
func (r *Reader) ReadAll(_ context.Context) ([]pipeline.Record, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open dlq file %s: %w", r.path, err)
	}
	defer f.Close()

	var records []pipeline.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var raw json.RawMessage
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("parse dlq line: %w", err)
		}
		records = append(records, pipeline.NewRecord(append(json.RawMessage(nil), raw...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan dlq file %s: %w", r.path, err)
	}
	return records, nil
}
