// Package objectstore implements a sink that writes each batch as a
// single NDJSON object to an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/ravndata/ingestgate/internal/pipeline"
	"github.com/ravndata/ingestgate/internal/security"
	"github.com/ravndata/ingestgate/internal/utils"
)

// Sink PUTs one object per flushed batch.
type Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// Config configures the destination bucket, client region, and
// optional static credentials. When AccessKeyID is empty, the SDK's
// default credential chain (environment, shared config, instance
// role) is used instead.
type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Sink, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore sink: load aws config: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "ingestion/"
	}

	logger.Info("objectstore sink configured",
		"bucket", cfg.Bucket,
		"prefix", prefix,
		"region", cfg.Region,
		"access_key_id", security.MaskSecret(cfg.AccessKeyID, 4),
	)

	return &Sink{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: prefix,
	}, nil
}

func (s *Sink) WriteBatch(ctx context.Context, records []pipeline.Record) error {
	if len(records) == 0 {
		return nil
	}

	var body bytes.Buffer
	for _, r := range records {
		body.Write(r.Bytes())
		body.WriteByte('\n')
	}

	key := fmt.Sprintf("%sbatch_%d_%s.ndjson", s.prefix, utils.NowUTC().UnixMilli(), uuid.NewString())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body.Bytes()),
	})
	if err != nil {
		return &pipeline.RetryableDeliveryError{Err: fmt.Errorf("objectstore sink: put object %s: %w", key, err)}
	}

	return nil
}
