// Package startup runs best-effort connectivity checks against the
// configured sinks before the pipeline starts accepting traffic.
package startup

import (
	"context"
	"log/slog"
	"time"

	"github.com/ravndata/ingestgate/internal/config"
	"github.com/ravndata/ingestgate/internal/sink/postgres"
)

// connectTimeout bounds each individual sink check so a single
// unreachable dependency cannot stall startup indefinitely.
const connectTimeout = 5 * time.Second

// ValidateSinksAtStartup performs a best-effort reachability check
// against each postgres sink wired into cfg. Results are logged as WARN
// when a sink can't be reached; startup continues regardless, since the
// pipeline's own retry policy and circuit breaker are what handle a
// sink that is down at runtime. The file, terminal and objectstore
// sinks are not checked.
func ValidateSinksAtStartup(ctx context.Context, cfg *config.Config, log *slog.Logger) {
	checks := []struct {
		label string
		sink  config.SinkConfig
	}{
		{"sink.primary", cfg.Sink.Primary},
		{"sink.dlq", cfg.Sink.DLQ},
	}

	reachable, unreachable := 0, 0
	for _, c := range checks {
		if !needsConnectivityCheck(c.sink.Type) {
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := checkSink(checkCtx, c.sink, log)
		cancel()

		if err != nil {
			unreachable++
			log.Warn("sink unreachable at startup",
				"sink", c.label,
				"type", c.sink.Type,
				"error", err.Error(),
				"recommendation", "verify the sink is running and network accessible; it will be retried at flush time",
			)
			continue
		}

		reachable++
		log.Debug("sink reachable at startup", "sink", c.label, "type", c.sink.Type)
	}

	if unreachable > 0 {
		log.Warn("one or more sinks were unreachable at startup",
			"reachable", reachable,
			"unreachable", unreachable,
		)
	}
}

func needsConnectivityCheck(t config.SinkType) bool {
	switch t {
	case config.SinkTypePostgres:
		return true
	default:
		return false
	}
}

func checkSink(ctx context.Context, cfg config.SinkConfig, log *slog.Logger) error {
	switch cfg.Type {
	case config.SinkTypePostgres:
		return checkPostgres(ctx, cfg, log)
	default:
		return nil
	}
}

func checkPostgres(ctx context.Context, cfg config.SinkConfig, log *slog.Logger) error {
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       int32(cfg.MaxConns),
		MinConns:       int32(cfg.MinConns),
		ConnectTimeout: connectTimeout,
	}, log.With("check", "startup"))
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}
