package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
)

// AudioStore persists one audio clip and returns the URL a browser can fetch it from.
type AudioStore interface {
	Save(ctx context.Context, name string, audio []byte) (string, error)
}

// LocalStore writes clips into a directory the router serves under urlPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore writes audio into dir and serves it under urlPrefix.
func NewLocalStore(dir, urlPrefix string) *LocalStore {
	return &LocalStore{dir: dir, urlPrefix: urlPrefix}
}

// Save writes audio to dir/name, creating dir if needed.
func (s *LocalStore) Save(_ context.Context, name string, audio []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir %q: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio file %q: %w", path, err)
	}
	return s.urlPrefix + "/" + name, nil
}

// GCSStore uploads clips to a bucket and returns their public object URL.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore uploads audio to bucket.
func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

// Save uploads audio and returns its public object URL.
func (s *GCSStore) Save(ctx context.Context, name string, audio []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "audio/mpeg"
	if _, err := w.Write(audio); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gcs object %s/%s: %w", s.bucket, name, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize gcs object %s/%s: %w", s.bucket, name, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name), nil
}
