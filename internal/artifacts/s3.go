package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the credentials for an S3-compatible artifact bucket.
// MinIO and other self-hosted endpoints work through ServiceURL.
type S3Config struct {
	ServiceURL string
	AccessKey  string
	SecretKey  string
	Bucket     string
}

// Configured reports whether enough settings are present to use S3.
func (c S3Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// S3Store persists artifacts in object storage.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds an S3 client from static credentials, pointing at a
// custom endpoint when one is configured.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     cfg.AccessKey,
				SecretAccessKey: cfg.SecretKey,
			}, nil
		})),
		awsconfig.WithRegion("us-east-1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.ServiceURL != "" {
			o.BaseEndpoint = aws.String(cfg.ServiceURL)
		}
		o.UsePathStyle = true
	})

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3Store) put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (s *S3Store) get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// PutRaw saves the raw audit response for one route of a run.
func (s *S3Store) PutRaw(ctx context.Context, runID, routeID string, data []byte) error {
	return s.put(ctx, rawKey(runID, routeID), data)
}

// GetRaw returns a previously saved raw response.
func (s *S3Store) GetRaw(ctx context.Context, runID, routeID string) ([]byte, error) {
	return s.get(ctx, rawKey(runID, routeID))
}

// PutScreenshot saves the run's preview image.
func (s *S3Store) PutScreenshot(ctx context.Context, runID string, png []byte) error {
	return s.put(ctx, screenshotKey(runID), png)
}

// GetScreenshot returns the run's preview image.
func (s *S3Store) GetScreenshot(ctx context.Context, runID string) ([]byte, error) {
	return s.get(ctx, screenshotKey(runID))
}
