package storage

import (
	"context"
	"errors"
)

// ErrNotExist is returned when a blob key has no object behind it.
var ErrNotExist = errors.New("blob does not exist")

// BlobStore provides access to photo binary content, addressed by key.
// Write must replace atomically: readers never observe a partially written
// object.
type BlobStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}
