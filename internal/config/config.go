// Package config loads and validates the ingestion gateway's YAML
// configuration: the admission server, the bounded queue, the batch
// accumulator, the retry policy, the circuit breaker, and the two sinks
// (primary and dead-letter) the pipeline is wired to at startup.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SinkType names a concrete sink implementation selectable from config.
type SinkType string

const (
	SinkTypeTerminal    SinkType = "terminal"
	SinkTypeFile        SinkType = "file"
	SinkTypePostgres    SinkType = "postgres"
	SinkTypeObjectStore SinkType = "objectstore"
)

// IsValidPrimary reports whether t is usable as sink.primary.
func (t SinkType) IsValidPrimary() bool {
	switch t {
	case SinkTypeTerminal, SinkTypeFile, SinkTypePostgres, SinkTypeObjectStore:
		return true
	}
	return false
}

// IsValidDLQ reports whether t is usable as sink.dlq. The DLQ must be
// something an operator can inspect and replay after the fact, so the
// fire-and-forget terminal sink is not an option here.
func (t SinkType) IsValidDLQ() bool {
	switch t {
	case SinkTypeFile, SinkTypePostgres:
		return true
	}
	return false
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Queue   QueueConfig   `yaml:"queue"`
	Batch   BatchConfig   `yaml:"batch"`
	Retry   RetryConfig   `yaml:"retry"`
	Breaker BreakerConfig `yaml:"breaker"`
	Sink    SinksConfig   `yaml:"sink"`
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	LoggingLevel  string `yaml:"logging_level"`
	MaxBodySizeMB int    `yaml:"max_body_size_mb"`
}

// UnmarshalYAML supports os.environ/VAR_NAME indirection on every field.
func (s *ServerConfig) UnmarshalYAML(value *yaml.Node) error {
	type tempConfig struct {
		Port          string `yaml:"port"`
		LoggingLevel  string `yaml:"logging_level"`
		MaxBodySizeMB string `yaml:"max_body_size_mb"`
	}

	var temp tempConfig
	if err := value.Decode(&temp); err != nil {
		return err
	}

	var err error
	if s.Port, err = parseIntField(temp.Port, 8080, "server.port"); err != nil {
		return err
	}
	s.LoggingLevel = resolveEnvString(temp.LoggingLevel)
	if s.MaxBodySizeMB, err = parseIntField(temp.MaxBodySizeMB, 10, "server.max_body_size_mb"); err != nil {
		return err
	}
	return nil
}

type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

func (q *QueueConfig) UnmarshalYAML(value *yaml.Node) error {
	type tempConfig struct {
		Capacity string `yaml:"capacity"`
	}

	var temp tempConfig
	if err := value.Decode(&temp); err != nil {
		return err
	}

	var err error
	q.Capacity, err = parseIntField(temp.Capacity, 1000, "queue.capacity")
	return err
}

type BatchConfig struct {
	Size          int           `yaml:"size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

func (b *BatchConfig) UnmarshalYAML(value *yaml.Node) error {
	type tempConfig struct {
		Size          string `yaml:"size"`
		FlushInterval string `yaml:"flush_interval"`
	}

	var temp tempConfig
	if err := value.Decode(&temp); err != nil {
		return err
	}

	var err error
	if b.Size, err = parseIntField(temp.Size, 100, "batch.size"); err != nil {
		return err
	}
	b.FlushInterval, err = parseDurationField(temp.FlushInterval, 5*time.Second, "batch.flush_interval")
	return err
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

func (r *RetryConfig) UnmarshalYAML(value *yaml.Node) error {
	type tempConfig struct {
		MaxAttempts string `yaml:"max_attempts"`
		BaseDelay   string `yaml:"base_delay"`
	}

	var temp tempConfig
	if err := value.Decode(&temp); err != nil {
		return err
	}

	var err error
	if r.MaxAttempts, err = parseIntField(temp.MaxAttempts, 3, "retry.max_attempts"); err != nil {
		return err
	}
	r.BaseDelay, err = parseDurationField(temp.BaseDelay, 500*time.Millisecond, "retry.base_delay")
	return err
}

// BreakerConfig tunes the circuit breaker wrapping the primary sink. It is
// additive: with ConsecutiveFailures never reached, the breaker never
// opens and behavior matches the retry policy alone.
type BreakerConfig struct {
	ConsecutiveFailures uint          `yaml:"consecutive_failures"`
	OpenDuration        time.Duration `yaml:"open_duration"`
}

func (b *BreakerConfig) UnmarshalYAML(value *yaml.Node) error {
	type tempConfig struct {
		ConsecutiveFailures string `yaml:"consecutive_failures"`
		OpenDuration        string `yaml:"open_duration"`
	}

	var temp tempConfig
	if err := value.Decode(&temp); err != nil {
		return err
	}

	consecutive, err := parseIntField(temp.ConsecutiveFailures, 5, "breaker.consecutive_failures")
	if err != nil {
		return err
	}
	b.ConsecutiveFailures = uint(consecutive)

	b.OpenDuration, err = parseDurationField(temp.OpenDuration, 30*time.Second, "breaker.open_duration")
	return err
}

type SinksConfig struct {
	Primary SinkConfig `yaml:"primary"`
	DLQ     SinkConfig `yaml:"dlq"`
}

// SinkConfig is a union of every concrete sink's fields; only the ones
// relevant to Type are validated and read by the sink constructors.
type SinkConfig struct {
	Type SinkType `yaml:"type"`

	// file
	Path string `yaml:"path,omitempty"`

	// postgres
	DatabaseURL string `yaml:"database_url,omitempty"`
	MaxConns    int    `yaml:"max_conns,omitempty"`
	MinConns    int    `yaml:"min_conns,omitempty"`

	// objectstore
	Bucket          string `yaml:"bucket,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	Region          string `yaml:"region,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

func (s *SinkConfig) UnmarshalYAML(value *yaml.Node) error {
	type tempConfig struct {
		Type            string `yaml:"type"`
		Path            string `yaml:"path,omitempty"`
		DatabaseURL     string `yaml:"database_url,omitempty"`
		MaxConns        string `yaml:"max_conns,omitempty"`
		MinConns        string `yaml:"min_conns,omitempty"`
		Bucket          string `yaml:"bucket,omitempty"`
		Prefix          string `yaml:"prefix,omitempty"`
		Region          string `yaml:"region,omitempty"`
		AccessKeyID     string `yaml:"access_key_id,omitempty"`
		SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	}

	var temp tempConfig
	if err := value.Decode(&temp); err != nil {
		return err
	}

	s.Type = SinkType(resolveEnvString(temp.Type))
	s.Path = resolveEnvString(temp.Path)
	s.DatabaseURL = resolveEnvString(temp.DatabaseURL)
	s.Bucket = resolveEnvString(temp.Bucket)
	s.Prefix = resolveEnvString(temp.Prefix)
	s.Region = resolveEnvString(temp.Region)
	s.AccessKeyID = resolveEnvString(temp.AccessKeyID)
	s.SecretAccessKey = resolveEnvString(temp.SecretAccessKey)

	var err error
	if s.MaxConns, err = parseIntField(temp.MaxConns, 10, "sink.max_conns"); err != nil {
		return err
	}
	s.MinConns, err = parseIntField(temp.MinConns, 2, "sink.min_conns")
	return err
}

// Load reads, parses, normalizes, and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// A section's UnmarshalYAML only runs when the section is present in
	// the file, so omitted sections start from the same defaults here.
	cfg := Config{
		Server:  ServerConfig{Port: 8080, MaxBodySizeMB: 10},
		Queue:   QueueConfig{Capacity: 1000},
		Batch:   BatchConfig{Size: 100, FlushInterval: 5 * time.Second},
		Retry:   RetryConfig{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond},
		Breaker: BreakerConfig{ConsecutiveFailures: 5, OpenDuration: 30 * time.Second},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Normalize applies defaults that depend on more than one field.
func (c *Config) Normalize() {
	if c.Sink.Primary.Prefix == "" {
		c.Sink.Primary.Prefix = "ingestion/"
	}
	if c.Sink.DLQ.Prefix == "" {
		c.Sink.DLQ.Prefix = "dlq/"
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("invalid max_body_size_mb: %d", c.Server.MaxBodySizeMB)
	}
	if c.Server.LoggingLevel == "" {
		c.Server.LoggingLevel = "info"
	} else {
		validLevels := map[string]bool{"info": true, "debug": true, "error": true}
		if !validLevels[c.Server.LoggingLevel] {
			return fmt.Errorf("invalid logging_level: %s (must be info, debug, or error)", c.Server.LoggingLevel)
		}
	}

	if c.Queue.Capacity <= 0 {
		return fmt.Errorf("invalid queue.capacity: %d (must be positive)", c.Queue.Capacity)
	}

	if c.Batch.Size <= 0 {
		return fmt.Errorf("invalid batch.size: %d (must be positive)", c.Batch.Size)
	}
	if c.Batch.FlushInterval <= 0 {
		return fmt.Errorf("invalid batch.flush_interval: %v (must be positive)", c.Batch.FlushInterval)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("invalid retry.max_attempts: %d (must be >= 1)", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("invalid retry.base_delay: %v (must be >= 0)", c.Retry.BaseDelay)
	}

	if err := validateSink("sink.primary", c.Sink.Primary, c.Sink.Primary.Type.IsValidPrimary); err != nil {
		return err
	}
	if err := validateSink("sink.dlq", c.Sink.DLQ, c.Sink.DLQ.Type.IsValidDLQ); err != nil {
		return err
	}

	return nil
}

func validateSink(label string, s SinkConfig, typeOK func() bool) error {
	if s.Type == "" {
		return fmt.Errorf("%s.type is required", label)
	}
	if !typeOK() {
		return fmt.Errorf("%s: invalid type %q", label, s.Type)
	}

	switch s.Type {
	case SinkTypeFile:
		if s.Path == "" {
			return fmt.Errorf("%s.path is required for type file", label)
		}
	case SinkTypePostgres:
		if s.DatabaseURL == "" {
			return fmt.Errorf("%s.database_url is required for type postgres", label)
		}
	case SinkTypeObjectStore:
		if s.Bucket == "" {
			return fmt.Errorf("%s.bucket is required for type objectstore", label)
		}
	}

	return nil
}
