package storage

import "context"

// Uploader is the narrow object-storage interface the services depend on.
// The S3 implementation lives in s3.go; tests use an in-memory fake.
type Uploader interface {
	Upload(ctx context.Context, data []byte, key string, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Key(folder string, ownerID uint, originalName string, label string) string
	KeyFromURL(url string) string
}
