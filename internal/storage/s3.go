package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"simpledms/internal/config"
)

// s3Storage implements Provider using AWS SDK v2.
type s3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	bucket    string
}

var _ Provider = (*s3Storage)(nil)

// bucketCheckTimeout bounds the HeadBucket call made at construction.
const bucketCheckTimeout = 10 * time.Second

// NewS3 builds the AWS S3 provider and verifies the bucket is reachable.
// Endpoint and UsePathStyle allow S3-compatible services.
func NewS3(ctx context.Context, cfg config.S3Config) (Provider, error) {
	st, err := newS3Client(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
	defer cancel()

	// A missing bucket makes every HeadObject answer a bare 404, which would
	// read as "object not found" for every key.
	if _, err := st.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("%w: s3 bucket %q not reachable: %v", ErrConfiguration, cfg.Bucket, err)
	}
	return st, nil
}

func newS3Client(cfg config.S3Config) (*s3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", ErrConfiguration)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: s3 region is required", ErrConfiguration)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: s3 credentials are required", ErrConfiguration)
	}

	awsCfg := aws.Config{
		Region:           cfg.Region,
		Credentials:      credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		RetryMode:        aws.RetryModeStandard,
		RetryMaxAttempts: 3,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &s3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = 16 * 1024 * 1024
			u.Concurrency = 2
		}),
		bucket: cfg.Bucket,
	}, nil
}

// Upload uses the multipart-aware uploader so readers of unknown size are accepted.
func (s *s3Storage) Upload(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     r,
		Metadata: opt.Metadata,
	}
	if opt.ContentType != "" {
		input.ContentType = aws.String(opt.ContentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", mapS3Error("put", key, err)
	}
	return key, nil
}

func (s *s3Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapS3Error("get", key, err)
	}
	return out.Body, nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapS3Error("delete", key, err)
	}
	return nil
}

// GenerateDownloadURL signs a GET request locally; no network call is made.
func (s *s3Storage) GenerateDownloadURL(ctx context.Context, key string, validity time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ClampValidity(validity)
	})
	if err != nil {
		return "", mapS3Error("presign", key, err)
	}
	return req.URL, nil
}

func (s *s3Storage) GetInfo(ctx context.Context, key string) (ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectInfo{}, mapS3Error("head", key, err)
	}
	return ObjectInfo{
		Key:         key,
		Name:        baseName(key),
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ETag:        strings.Trim(aws.ToString(out.ETag), `"`),
		UploadedAt:  aws.ToTime(out.LastModified),
		Metadata:    out.Metadata,
	}, nil
}

// mapS3Error folds the SDK's several not-found shapes into ErrObjectNotFound.
// HeadObject has no body, so a missing key only surfaces as a generic "NotFound" API error.
func mapS3Error(op, key string, err error) error {
	var (
		notFound *types.NotFound
		noKey    *types.NoSuchKey
		apiErr   smithy.APIError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &noKey):
		return fmt.Errorf("s3 %s %q: %w", op, key, ErrObjectNotFound)
	case errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey"):
		return fmt.Errorf("s3 %s %q: %w", op, key, ErrObjectNotFound)
	}
	return fmt.Errorf("s3 %s %q: %w", op, key, err)
}
