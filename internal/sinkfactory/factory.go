// Package sinkfactory builds a concrete sink from a config.SinkConfig,
// the way the original gateway's build_sink/build_dlq_sink functions
// picked a destination from environment variables.
package sinkfactory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ravndata/ingestgate/internal/config"
	"github.com/ravndata/ingestgate/internal/pipeline"
	"github.com/ravndata/ingestgate/internal/sink/file"
	"github.com/ravndata/ingestgate/internal/sink/objectstore"
	"github.com/ravndata/ingestgate/internal/sink/postgres"
	"github.com/ravndata/ingestgate/internal/sink/terminal"
)

// Closer releases resources a sink holds open (a file handle, a
// connection pool). New always returns one, even if it's a noop.
type Closer interface {
	Close() error
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// New builds the sink named by cfg.Type, plus a Closer to release its
// resources during shutdown. label identifies the sink in log lines
// ("sink.primary" or "sink.dlq").
func New(ctx context.Context, label string, cfg config.SinkConfig, logger *slog.Logger) (pipeline.Sink, Closer, error) {
	switch cfg.Type {
	case config.SinkTypeTerminal:
		logger.Info("sink configured", "sink", label, "type", cfg.Type)
		return terminal.New(logger.With("sink", label)), noopCloser{}, nil

	case config.SinkTypeFile:
		s, err := file.New(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", label, err)
		}
		logger.Info("sink configured", "sink", label, "type", cfg.Type, "path", cfg.Path)
		return s, s, nil

	case config.SinkTypePostgres:
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			DatabaseURL: cfg.DatabaseURL,
			MaxConns:    int32(cfg.MaxConns),
			MinConns:    int32(cfg.MinConns),
		}, logger.With("sink", label))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", label, err)
		}
		s := postgres.NewSink(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("%s: ensure schema: %w", label, err)
		}
		return s, poolCloser{pool}, nil

	case config.SinkTypeObjectStore:
		s, err := objectstore.New(ctx, objectstore.Config{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		}, logger.With("sink", label))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", label, err)
		}
		return s, noopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("%s: unknown sink type %q", label, cfg.Type)
	}
}

type poolCloser struct {
	pool *pgxpool.Pool
}

func (c poolCloser) Close() error {
	c.pool.Close()
	return nil
}
