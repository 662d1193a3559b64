package coldstorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/scentguard/scentguard/internal/logging"
)

// S3Config mirrors the connector-hub config-key shape (bucket/auth/endpoint)
// this system's connector validation uses elsewhere, narrowed to what an
// S3-backed cold storage adapter actually needs.
type S3Config struct {
	Bucket   string
	Prefix   string
	Endpoint string // optional, for S3-compatible endpoints
	Timeout  time.Duration
}

// S3Adapter is a fire-and-forget ColdStorageAdapter backed by a real S3
// client. Write never blocks its caller on network completion: it runs the
// PutObject call on its own goroutine and logs failure rather than
// propagating it, matching the spec's fire-and-forget contract.
type S3Adapter struct {
	client *s3.Client
	cfg    S3Config
	log    *logging.Logger
}

// NewS3Adapter loads the default AWS credential chain and builds an
// adapter for cfg.Bucket.
func NewS3Adapter(ctx context.Context, cfg S3Config, log *logging.Logger) (*S3Adapter, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("coldstorage: bucket is required")
	}
	if log == nil {
		log = logging.Nop
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("coldstorage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Adapter{client: client, cfg: cfg, log: log}, nil
}

func (a *S3Adapter) key(id string) string {
	if a.cfg.Prefix == "" {
		return id
	}
	return strings.TrimSuffix(a.cfg.Prefix, "/") + "/" + id
}

// Write issues a background PutObject; errors are logged, never returned
// to the caller (there is no error to return — the evacuation that
// triggered this write has already completed from the Quarantine's point
// of view).
func (a *S3Adapter) Write(id string, payload []byte) {
	go a.put(id, payload)
}

func (a *S3Adapter) put(id string, payload []byte) {
	timeout := a.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(a.key(id)),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		a.log.Error(ctx, "coldstorage: s3 write failed", map[string]any{
			"id":    id,
			"error": err.Error(),
		})
	}
}

func (a *S3Adapter) Read(id string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeoutOrDefault())
	defer cancel()
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(a.key(id)),
	})
	if err != nil {
		return nil, fmt.Errorf("coldstorage: s3 read %q: %w", id, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (a *S3Adapter) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeoutOrDefault())
	defer cancel()
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(a.key(id)),
	})
	if err != nil {
		return fmt.Errorf("coldstorage: s3 delete %q: %w", id, err)
	}
	return nil
}

func (a *S3Adapter) IsAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeoutOrDefault())
	defer cancel()
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.cfg.Bucket)})
	return err == nil
}

func (a *S3Adapter) timeoutOrDefault() time.Duration {
	if a.cfg.Timeout <= 0 {
		return 30 * time.Second
	}
	return a.cfg.Timeout
}
