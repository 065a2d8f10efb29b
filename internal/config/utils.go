package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// resolveEnvString resolves a value in the form "os.environ/VAR_NAME" against
// the process environment. Values that don't match the prefix pass through
// unchanged, so plain literals in the config file keep working.
func resolveEnvString(value string) string {
	const prefix = "os.environ/"
	if strings.HasPrefix(value, prefix) {
		envVar := strings.TrimPrefix(value, prefix)
		if envValue := os.Getenv(envVar); envValue != "" {
			return envValue
		}
		slog.Warn("environment variable not set, returning empty string",
			"env_var", envVar,
			"pattern", value,
		)
		return ""
	}
	return value
}

type parseFunc[T any] func(string) (T, error)

// parseField resolves env-var indirection then parses the resolved string,
// falling back to defaultValue when the field was omitted from the file.
func parseField[T any](tempValue string, defaultValue T, parser parseFunc[T], fieldPath string) (T, error) {
	if tempValue == "" {
		return defaultValue, nil
	}

	resolved := resolveEnvString(tempValue)
	parsed, err := parser(resolved)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", fieldPath, err)
	}
	return parsed, nil
}

func parseIntField(value string, defaultVal int, fieldPath string) (int, error) {
	return parseField(value, defaultVal, strconv.Atoi, fieldPath)
}

func parseDurationField(value string, defaultVal time.Duration, fieldPath string) (time.Duration, error) {
	return parseField(value, defaultVal, time.ParseDuration, fieldPath)
}

// PrintConfig logs the effective configuration at startup, masking secrets.
func PrintConfig(logger *slog.Logger, cfg *Config) {
	logger.Info("=== Configuration Loaded ===")

	logger.Info("server",
		"port", cfg.Server.Port,
		"logging_level", cfg.Server.LoggingLevel,
		"max_body_size_mb", cfg.Server.MaxBodySizeMB,
	)

	logger.Info("queue",
		"capacity", cfg.Queue.Capacity,
	)

	logger.Info("batch",
		"size", cfg.Batch.Size,
		"flush_interval", cfg.Batch.FlushInterval.String(),
	)

	logger.Info("retry",
		"max_attempts", cfg.Retry.MaxAttempts,
		"base_delay", cfg.Retry.BaseDelay.String(),
	)

	logger.Info("breaker",
		"consecutive_failures", cfg.Breaker.ConsecutiveFailures,
		"open_duration", cfg.Breaker.OpenDuration.String(),
	)

	logSink(logger, "sink.primary", cfg.Sink.Primary)
	logSink(logger, "sink.dlq", cfg.Sink.DLQ)

	logger.Info("=== Configuration Ready ===")
}

func logSink(logger *slog.Logger, label string, s SinkConfig) {
	switch s.Type {
	case SinkTypePostgres:
		logger.Info(label,
			"type", s.Type,
			"database_url", maskIfSet(s.DatabaseURL),
			"max_conns", s.MaxConns,
			"min_conns", s.MinConns,
		)
	case SinkTypeObjectStore:
		logger.Info(label,
			"type", s.Type,
			"bucket", s.Bucket,
			"prefix", s.Prefix,
			"region", s.Region,
		)
	case SinkTypeFile:
		logger.Info(label, "type", s.Type, "path", s.Path)
	default:
		logger.Info(label, "type", s.Type)
	}
}

func maskIfSet(v string) string {
	if v == "" {
		return ""
	}
	return "***REDACTED***"
}
