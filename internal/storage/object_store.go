package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectStore interface {
	// GetObject returns the full content of bucket/key. A missing bucket or key
	// is reported as ErrObjectNotFound.
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)

	// PutObject writes data to bucket/key, replacing any existing object.
	PutObject(ctx context.Context, bucket, key string, data io.Reader) error
}
