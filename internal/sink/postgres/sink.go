package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ravndata/ingestgate/internal/pipeline"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS ingestion_records (
	id BIGSERIAL PRIMARY KEY,
	batch_id UUID NOT NULL,
	payload JSONB NOT NULL,
	received_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Sink batch-inserts records into ingestion_records within a single
// transaction, so a partially-failed batch never becomes partially
// visible.
type Sink struct {
	pool *pgxpool.Pool
}

func NewSink(pool *pgxpool.Pool) *Sink {
	return &Sink{pool: pool}
}

// EnsureSchema creates the destination table if it doesn't already
// exist. Intended to be called once at startup, not on every batch.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("postgres sink: acquire for schema init: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("postgres sink: ensure schema: %w", err)
	}
	return nil
}

func (s *Sink) WriteBatch(ctx context.Context, records []pipeline.Record) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return &pipeline.RetryableDeliveryError{Err: fmt.Errorf("postgres sink: acquire: %w", err)}
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return &pipeline.RetryableDeliveryError{Err: fmt.Errorf("postgres sink: begin tx: %w", err)}
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	batchID := uuid.New()
	query, args := buildBatchInsertQuery(batchID, records)

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return &pipeline.RetryableDeliveryError{Err: fmt.Errorf("postgres sink: batch insert: %w", err)}
	}

	if err := tx.Commit(ctx); err != nil {
		return &pipeline.RetryableDeliveryError{Err: fmt.Errorf("postgres sink: commit: %w", err)}
	}

	return nil
}

// buildBatchInsertQuery builds a single multi-row INSERT so the whole
// batch commits or rolls back as one unit.
func buildBatchInsertQuery(batchID uuid.UUID, records []pipeline.Record) (string, []interface{}) {
	var b strings.Builder
	b.Grow(80 + len(records)*24)
	b.WriteString("INSERT INTO ingestion_records (batch_id, payload) VALUES ")

	args := make([]interface{}, 0, len(records)*2)
	for i, r := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "($%d, $%d)", i*2+1, i*2+2)
		args = append(args, batchID, r.Bytes())
	}

	return b.String(), args
}
