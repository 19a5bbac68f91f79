// Package storage holds the file side of the persistence gateway: a bucket
// that stores uploads under keys and serves them from public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/rpupo63/our-little-infinity/config"
	"github.com/rpupo63/our-little-infinity/errs"
)

// DefaultBucket is the bucket journal files live in.
const DefaultBucket = "media"

// Bucket stores files by key.
type Bucket interface {
	// Name returns the bucket name as it appears in public URLs.
	Name() string
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PublicURL(key string) string
	// Remove deletes keys in one batch. Missing keys are not an error.
	Remove(ctx context.Context, keys []string) error
}

// New builds the bucket selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (Bucket, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		return NewMemoryBucket(cfg.StorageBucket, cfg.StoragePublicURL), nil
	case config.StorageDriverS3:
		return NewS3Bucket(ctx, S3Config{
			Endpoint:        cfg.StorageEndpoint,
			Region:          cfg.StorageRegion,
			AccessKeyID:     cfg.StorageAccessKeyID,
			SecretAccessKey: cfg.StorageSecretAccessKey,
			Bucket:          cfg.StorageBucket,
			PublicURL:       cfg.StoragePublicURL,
		})
	default:
		return nil, errs.NewConfigError("STORAGE_DRIVER", fmt.Errorf("unknown storage driver %q", cfg.StorageDriver))
	}
}

// KeyFromURL extracts the object key from a public URL of bucket: everything
// after the first "/<bucket>/" path segment, without query or fragment.
func KeyFromURL(rawURL, bucket string) (string, bool) {
	marker := "/" + bucket + "/"
	idx := strings.Index(rawURL, marker)
	if idx < 0 {
		return "", false
	}

	key := rawURL[idx+len(marker):]
	if cut := strings.IndexAny(key, "?#"); cut >= 0 {
		key = key[:cut]
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	if key == "" {
		return "", false
	}
	return key, true
}

func joinPublicURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + key
}
