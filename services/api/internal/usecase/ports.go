package usecase

import (
	"context"
	"io"

	"framefeed/pkg/queue"
	"framefeed/pkg/s3"
)

// BlobStore is the part of the object store the use cases write to and read from.
type BlobStore interface {
	UploadFile(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
	Download(ctx context.Context, key, rangeHeader string) (*s3.Download, error)
}

type EventPublisher interface {
	PublishPostCreated(ctx context.Context, event queue.PostCreatedEvent) error
}
