// Package archive uploads generated term sheets to S3 for long-term,
// tamper-evident retention, keyed by their content-addressed document
// hash so the same term sheet content always lands at the same key.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
)

// Archiver uploads term sheet documents to a single S3 bucket.
type Archiver struct {
	uploader *manager.Uploader
	bucket   string
}

// New builds an Archiver for the given bucket/region using the default
// AWS credential chain.
func New(ctx context.Context, bucket, region string) (*Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("archive: load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &Archiver{uploader: manager.NewUploader(client), bucket: bucket}, nil
}

// Put uploads the document under key documentHash + ".json" and
// returns the object key. Transient upload failures are retried with
// exponential backoff inside the single activity attempt; the
// workflow's own retry policy is the outer safety net. Uploading the
// same hash twice is harmless: S3 PutObject is already idempotent by
// key.
func (a *Archiver) Put(ctx context.Context, documentHash string, document []byte) (string, error) {
	key := fmt.Sprintf("term-sheets/%s.json", documentHash)
	upload := func() error {
		_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(document),
			ContentType: aws.String("application/json"),
		})
		return err
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	if err := backoff.Retry(upload, backoff.WithContext(backoff.WithMaxRetries(policy, 4), ctx)); err != nil {
		return "", fmt.Errorf("archive: upload %s: %w", key, err)
	}
	return key, nil
}
