package ingestion

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/insight-engine/internal/pkg/logger"
	"github.com/ignite/insight-engine/internal/table"
)

// S3API is the part of the S3 client the source needs.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Source reads campaign exports stored as S3 objects.
type S3Source struct {
	client S3API
	bucket string
}

// NewS3Source creates a source from a resolved AWS config.
func NewS3Source(awsCfg aws.Config, bucket string) *S3Source {
	return NewS3SourceWithClient(s3.NewFromConfig(awsCfg), bucket)
}

// NewS3SourceWithClient wires an existing client.
func NewS3SourceWithClient(client S3API, bucket string) *S3Source {
	return &S3Source{client: client, bucket: bucket}
}

// Load reads one object; its format comes from the key's extension.
func (s *S3Source) Load(ctx context.Context, key string) (*table.Table, error) {
	format, err := FormatOf(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	t, err := ReadBytes(data, format)
	if err != nil {
		return nil, fmt.Errorf("load s3://%s/%s: %w", s.bucket, key, err)
	}
	logger.Info("loaded object", "bucket", s.bucket, "key", key, "rows", t.Len())
	return t, nil
}

// LoadPrefix loads every supported object under prefix, in key order, and
// concatenates them. Empty objects are skipped.
func (s *S3Source) LoadPrefix(ctx context.Context, prefix string) (*table.Table, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if obj.Size == nil || *obj.Size == 0 || strings.HasSuffix(key, "/") {
				continue
			}
			if _, err := FormatOf(key); err != nil {
				continue
			}
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, prefix, ErrNoFiles)
	}

	parts := make([]*table.Table, 0, len(keys))
	for _, key := range keys {
		t, err := s.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		parts = append(parts, t)
	}
	return Concat(parts...), nil
}
