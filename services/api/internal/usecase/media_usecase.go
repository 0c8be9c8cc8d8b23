package usecase

import (
	"context"
	"fmt"
	"strings"

	"framefeed/pkg/apperr"
	"framefeed/pkg/s3"
)

type MediaUseCase interface {
	Open(ctx context.Context, key, rangeHeader string) (*s3.Download, error)
}

type mediaUseCase struct {
	blobs BlobStore
}

func NewMediaUseCase(blobs BlobStore) MediaUseCase {
	return &mediaUseCase{blobs: blobs}
}

// Open fetches key from the store on every call. Range is passed through untouched.
func (uc *mediaUseCase) Open(ctx context.Context, key, rangeHeader string) (*s3.Download, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: media key is required", apperr.ErrInvalidRequest)
	}
	dl, err := uc.blobs.Download(ctx, key, rangeHeader)
	if err != nil {
		return nil, upstream("download "+key, err)
	}
	return dl, nil
}
