package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tubely/backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// s3Storage implements FileStorage on an S3-compatible backend.
type s3Storage struct {
	PublicURLs
	client     *s3.Client
	bucketName string
	logger     zerolog.Logger
}

// NewS3Storage creates a new S3 storage service instance.
func NewS3Storage(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) (FileStorage, error) {
	opts := []func(*awsCfg.LoadOptions) error{
		awsCfg.WithRegion(cfg.Region),
	}
	// Without static keys the default chain applies (env, shared config, IAM role).
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			// S3-compatible services (MinIO etc.) need path-style addressing.
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	logger = logger.With().Str("component", "s3").Str("bucket", cfg.BucketName).Logger()
	logger.Info().Str("endpoint", cfg.Endpoint).Msg("S3 storage initialized")

	return &s3Storage{
		PublicURLs: NewPublicURLs(cfg.PublicEndpoint, cfg.BucketName, cfg.Region),
		client:     client,
		bucketName: cfg.BucketName,
		logger:     logger,
	}, nil
}

// Put uploads body to the bucket under key.
func (s *s3Storage) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to put object")
		return fmt.Errorf("put object %q: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Str("content_type", contentType).Msg("put object")
	return nil
}

// Delete removes an object from the bucket.
func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return ErrObjectNotFound
		}
		s.logger.Error().Err(err).Str("key", key).Msg("failed to delete object")
		return fmt.Errorf("delete object %q: %w", key, err)
	}

	s.logger.Info().Str("key", key).Msg("deleted object")
	return nil
}
