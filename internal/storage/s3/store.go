// Package s3 stores notes as objects in an S3-compatible bucket.
package s3

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const contentType = "text/markdown; charset=utf-8"

type Config struct {
	Bucket   string
	Region   string
	Endpoint string
	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// ObjectAPI is the subset of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Store struct {
	client ObjectAPI
	bucket string
	logger *slog.Logger
}

// New builds a store backed by a real S3 client.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewWithClient(client, cfg.Bucket, logger), nil
}

func NewWithClient(client ObjectAPI, bucket string, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		logger: logger.With("component", "s3", "bucket", bucket),
	}
}

// PutFile uploads content under key path and returns its s3:// URI.
func (s *Store) PutFile(ctx context.Context, path, content string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        strings.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", path, err)
	}

	ref := fmt.Sprintf("s3://%s/%s", s.bucket, path)
	s.logger.Debug("object stored", "ref", ref)
	return ref, nil
}
