package usecase

import (
	"context"
	"fmt"
	"strings"

	"framefeed/pkg/apperr"
	"framefeed/pkg/logger"
	"framefeed/pkg/mediaurl"
	"framefeed/services/api/internal/entity"
	"framefeed/services/api/internal/repo/cache"
	"framefeed/services/api/internal/repo/persistent"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

type UploadUseCase interface {
	CreatePostWithMedia(ctx context.Context, userID string, req entity.UploadRequest) (*entity.Post, error)
	UploadAvatar(ctx context.Context, userID string, file entity.UploadFile) (*entity.User, error)
}

type uploadUseCase struct {
	postRepo  persistent.PostRepository
	userRepo  persistent.UserRepository
	blobs     BlobStore
	feedCache cache.FeedCache
	events    EventPublisher
	present   presenter
	maxFiles  int
	logger    *logger.Logger
}

func NewUploadUseCase(
	postRepo persistent.PostRepository,
	userRepo persistent.UserRepository,
	blobs BlobStore,
	feedCache cache.FeedCache,
	events EventPublisher,
	urls mediaurl.Rewriter,
	maxFiles int,
	logger *logger.Logger,
) UploadUseCase {
	return &uploadUseCase{
		postRepo:  postRepo,
		userRepo:  userRepo,
		blobs:     blobs,
		feedCache: feedCache,
		events:    events,
		present:   presenter{urls: urls},
		maxFiles:  maxFiles,
		logger:    logger,
	}
}

// CreatePostWithMedia stores every file, then writes the post in one
// transaction. Nothing is left behind when either step fails.
func (uc *uploadUseCase) CreatePostWithMedia(ctx context.Context, userID string, req entity.UploadRequest) (*entity.Post, error) {
	files := validFiles(req.Files)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one media file is required", apperr.ErrValidation)
	}
	if uc.maxFiles > 0 && len(files) > uc.maxFiles {
		return nil, fmt.Errorf("%w: at most %d media files are allowed", apperr.ErrValidation, uc.maxFiles)
	}

	if _, err := uc.userRepo.EnsureUser(ctx, userID); err != nil {
		return nil, upstream("ensure user", err)
	}

	staged, err := uc.stage(ctx, postsPrefix, userID, files)
	if err != nil {
		return nil, err
	}

	post := &entity.Post{
		UserID:  userID,
		Caption: req.Caption,
		Tag:     tagOrDefault(req.Tag),
		Media:   make([]entity.MediaItem, len(staged)),
	}
	for i, blob := range staged {
		post.Media[i] = entity.MediaItem{URL: blob.URL, Type: blob.Type, Order: i}
	}

	if err := uc.postRepo.Create(ctx, post); err != nil {
		uc.discard(ctx, staged)
		return nil, fmt.Errorf("%w: create post: %v", apperr.ErrUpstream, err)
	}

	uc.logger.Info("Created post %s for user %s with %d media", post.ID, userID, len(staged))

	stored := reload(ctx, uc.postRepo, post, uc.logger)
	announce(ctx, uc.feedCache, uc.events, uc.logger, stored)
	return uc.present.post(stored), nil
}

func (uc *uploadUseCase) UploadAvatar(ctx context.Context, userID string, file entity.UploadFile) (*entity.User, error) {
	if !file.Valid() {
		return nil, fmt.Errorf("%w: an avatar image is required", apperr.ErrValidation)
	}

	if _, err := uc.userRepo.EnsureUser(ctx, userID); err != nil {
		return nil, upstream("ensure user", err)
	}

	staged, err := uc.prepare(avatarsPrefix, userID, []entity.UploadFile{file})
	if err != nil {
		return nil, err
	}
	if staged[0].Type != entity.MediaTypeImage || !strings.HasPrefix(staged[0].ContentType, "image/") {
		return nil, fmt.Errorf("%w: avatar must be an image", apperr.ErrValidation)
	}

	if err := uc.upload(ctx, []entity.UploadFile{file}, staged); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.UpdateAvatar(ctx, userID, staged[0].URL)
	if err != nil {
		uc.discard(ctx, staged)
		return nil, upstream("update avatar", err)
	}

	// Cached feed pages embed the author's avatar.
	uc.feedCache.Invalidate(ctx)
	return uc.present.user(user), nil
}

func (uc *uploadUseCase) stage(ctx context.Context, prefix, userID string, files []entity.UploadFile) ([]entity.StagedBlob, error) {
	staged, err := uc.prepare(prefix, userID, files)
	if err != nil {
		return nil, err
	}
	if err := uc.upload(ctx, files, staged); err != nil {
		return nil, err
	}
	return staged, nil
}

// prepare assigns keys in submission order and resolves content types.
func (uc *uploadUseCase) prepare(prefix, userID string, files []entity.UploadFile) ([]entity.StagedBlob, error) {
	staged := make([]entity.StagedBlob, len(files))
	for i, f := range files {
		contentType, err := contentTypeOf(f)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read %s", apperr.ErrValidation, f.Name)
		}
		staged[i] = entity.StagedBlob{
			Key:         objectKey(prefix, userID, nextMillis(), f.Name),
			ContentType: contentType,
			Type:        mediaTypeFor(contentType),
		}
	}
	return staged, nil
}

// upload writes all files concurrently and waits for every one of them.
// On failure every key that was attempted is removed again.
func (uc *uploadUseCase) upload(ctx context.Context, files []entity.UploadFile, staged []entity.StagedBlob) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range files {
		i := i
		g.Go(func() error {
			body, err := files[i].Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", files[i].Name, err)
			}
			defer body.Close()

			url, err := uc.blobs.UploadFile(gctx, staged[i].Key, body, staged[i].ContentType)
			if err != nil {
				return err
			}
			staged[i].URL = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		uc.logger.Error("Failed to store media batch: %v", err)
		uc.discard(ctx, staged)
		return fmt.Errorf("%w: store media: %v", apperr.ErrUpstream, err)
	}
	return nil
}

func (uc *uploadUseCase) discard(ctx context.Context, staged []entity.StagedBlob) {
	cleanup := context.WithoutCancel(ctx)
	for _, blob := range staged {
		if err := uc.blobs.DeleteFile(cleanup, blob.Key); err != nil {
			uc.logger.Warn("Failed to remove orphaned blob %s: %v", blob.Key, err)
		}
	}
}

func validFiles(files []entity.UploadFile) []entity.UploadFile {
	valid := make([]entity.UploadFile, 0, len(files))
	for _, f := range files {
		if f.Valid() {
			valid = append(valid, f)
		}
	}
	return valid
}

// contentTypeOf trusts the declared type and sniffs the content otherwise.
func contentTypeOf(f entity.UploadFile) (string, error) {
	declared := strings.TrimSpace(f.ContentType)
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	body, err := f.Open()
	if err != nil {
		return "", err
	}
	defer body.Close()

	mt, err := mimetype.DetectReader(body)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}
