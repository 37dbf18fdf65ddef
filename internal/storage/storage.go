package storage

import (
	"context"
	"io"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service stores uploaded post media in remote object storage.
type Service interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	ObjectURL(ctx context.Context, key string, expires time.Duration) (string, error)
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
