package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ObjectFetcher copies one stored object into dst.
type ObjectFetcher interface {
	Download(ctx context.Context, bucket, object string, dst io.Writer) error
}

// GCSFetcher reads objects from Google Cloud Storage.
type GCSFetcher struct {
	client *gcs.Client
}

// NewGCSFetcher builds a client from application default credentials, or
// from credentialsFile when it is set.
func NewGCSFetcher(ctx context.Context, credentialsFile string) (*GCSFetcher, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: new client: %w", ErrFetch, err)
	}
	return &GCSFetcher{client: client}, nil
}

// Download streams bucket/object into dst.
func (f *GCSFetcher) Download(ctx context.Context, bucket, object string, dst io.Writer) error {
	rc, err := f.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
			return fmt.Errorf("%w: gs://%s/%s", ErrNotFound, bucket, object)
		}
		return fmt.Errorf("%w: gs://%s/%s: %w", ErrFetch, bucket, object, err)
	}
	defer func() { _ = rc.Close() }()

	if _, err := io.Copy(dst, rc); err != nil {
		return fmt.Errorf("%w: read gs://%s/%s: %w", ErrFetch, bucket, object, err)
	}
	return nil
}

// Close releases the underlying client.
func (f *GCSFetcher) Close() error {
	return f.client.Close()
}
