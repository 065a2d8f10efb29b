package pipeline

import "encoding/json"

// Record is an opaque, immutable ingestion record. The pipeline never
// unmarshals it into a concrete type or inspects its fields; it only
// moves the underlying bytes between the admission boundary, the
// queue, the worker's current batch, and a sink.
type Record struct {
	raw json.RawMessage
}

// NewRecord copies raw so the caller's buffer can be reused or mutated
// after the call returns without affecting the record owned by the
// pipeline.
func NewRecord(raw json.RawMessage) Record {
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return Record{raw: cp}
}

// Bytes returns the record's JSON-compatible payload.
func (r Record) Bytes() json.RawMessage {
	return r.raw
}
