// Package storage reads listing CSV objects from S3-compatible storage.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo is the metadata checked before an object is downloaded.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// ObjectReader is the read side of object storage used by source loading.
type ObjectReader interface {
	// Stat returns object metadata without downloading it.
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)

	// Open streams an object. The caller closes the returned reader.
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
}
