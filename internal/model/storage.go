package model

import (
	"context"
	"io"
)

// ObjectStore keeps opaque objects addressed by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Ping(ctx context.Context) error
}
