package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps blobs as objects in a Cloud Storage bucket under prefix.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSStore creates a Cloud Storage client. credentialsFile may be empty to
// use application default credentials.
func NewGCSStore(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET must be set for the gcs backend")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	slog.Info("GCS blob store initialized.", "bucket", bucket, "prefix", prefix)
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSStore) object(key string) (*gcs.ObjectHandle, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return s.client.Bucket(s.bucket).Object(s.prefix + key), nil
}

func (s *GCSStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	obj, err := s.object(key)
	if err != nil {
		return 0, err
	}
	w := obj.NewWriter(ctx)
	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return n, fmt.Errorf("io.Copy to GCS failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
	}
	return n, nil
}

func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.object(key)
	if err != nil {
		return nil, err
	}
	rc, err := obj.NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: gs://%s/%s%s", ErrNotExist, s.bucket, s.prefix, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s%s: %w", s.bucket, s.prefix, key, err)
	}
	return rc, nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	obj, err := s.object(key)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("delete gs://%s/%s%s: %w", s.bucket, s.prefix, key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
