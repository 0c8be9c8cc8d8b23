package usecase

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"framefeed/pkg/apperr"
	"framefeed/pkg/logger"
	"framefeed/pkg/mediaurl"
	"framefeed/pkg/queue"
	"framefeed/services/api/internal/entity"
	"framefeed/services/api/internal/repo/cache"
	"framefeed/services/api/internal/repo/persistent"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PostUseCase interface {
	ListPosts(ctx context.Context, filter entity.PostFilter) ([]*entity.Post, error)
	GetPost(ctx context.Context, id string) (*entity.Post, error)
	CreatePost(ctx context.Context, userID string, input entity.NewPost) (*entity.Post, error)
}

type postUseCase struct {
	postRepo  persistent.PostRepository
	userRepo  persistent.UserRepository
	feedCache cache.FeedCache
	events    EventPublisher
	present   presenter
	logger    *logger.Logger
}

func NewPostUseCase(
	postRepo persistent.PostRepository,
	userRepo persistent.UserRepository,
	feedCache cache.FeedCache,
	events EventPublisher,
	urls mediaurl.Rewriter,
	logger *logger.Logger,
) PostUseCase {
	return &postUseCase{
		postRepo:  postRepo,
		userRepo:  userRepo,
		feedCache: feedCache,
		events:    events,
		present:   presenter{urls: urls},
		logger:    logger,
	}
}

func (uc *postUseCase) ListPosts(ctx context.Context, filter entity.PostFilter) ([]*entity.Post, error) {
	filter = normalizeFilter(filter)

	if posts, ok := uc.feedCache.Get(ctx, filter); ok {
		return posts, nil
	}

	posts, err := uc.postRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: list posts: %v", apperr.ErrUpstream, err)
	}

	public := uc.present.posts(posts)
	uc.feedCache.Set(ctx, filter, public)
	return public, nil
}

func (uc *postUseCase) GetPost(ctx context.Context, id string) (*entity.Post, error) {
	post, err := uc.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, upstream("get post", err)
	}
	return uc.present.post(post), nil
}

// CreatePost stores a post whose media were uploaded out of band.
func (uc *postUseCase) CreatePost(ctx context.Context, userID string, input entity.NewPost) (*entity.Post, error) {
	media := make([]entity.NewMediaItem, 0, len(input.Media))
	for _, item := range input.Media {
		if strings.TrimSpace(item.URL) != "" {
			media = append(media, item)
		}
	}
	if len(media) == 0 {
		return nil, fmt.Errorf("%w: at least one media item is required", apperr.ErrValidation)
	}
	sort.SliceStable(media, func(i, j int) bool { return media[i].Order < media[j].Order })

	if _, err := uc.userRepo.EnsureUser(ctx, userID); err != nil {
		return nil, upstream("ensure user", err)
	}

	post := &entity.Post{
		UserID:  userID,
		Caption: input.Caption,
		Tag:     tagOrDefault(input.Tag),
		Media:   make([]entity.MediaItem, len(media)),
	}
	for i, item := range media {
		kind := item.Type
		if kind != entity.MediaTypeVideo {
			kind = entity.MediaTypeImage
		}
		post.Media[i] = entity.MediaItem{URL: item.URL, Type: kind, Order: i}
	}

	if err := uc.postRepo.Create(ctx, post); err != nil {
		return nil, upstream("create post", err)
	}

	stored := reload(ctx, uc.postRepo, post, uc.logger)
	announce(ctx, uc.feedCache, uc.events, uc.logger, stored)
	return uc.present.post(stored), nil
}

func normalizeFilter(filter entity.PostFilter) entity.PostFilter {
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter
}

func tagOrDefault(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return entity.DefaultTag
	}
	return tag
}

// reload fetches the post back with its author joined in. The freshly
// created value is returned if that fails.
func reload(ctx context.Context, repo persistent.PostRepository, post *entity.Post, log *logger.Logger) *entity.Post {
	stored, err := repo.GetByID(ctx, post.ID)
	if err != nil {
		log.Warn("Failed to reload post %s: %v", post.ID, err)
		return post
	}
	return stored
}

// announce drops cached feed pages and publishes post.created without
// holding up the request.
func announce(ctx context.Context, feedCache cache.FeedCache, events EventPublisher, log *logger.Logger, post *entity.Post) {
	feedCache.Invalidate(ctx)

	if events == nil {
		return
	}
	event := queue.PostCreatedEvent{
		PostID:     post.ID,
		UserID:     post.UserID,
		Tag:        post.Tag,
		MediaCount: len(post.Media),
		CreatedAt:  post.CreatedAt,
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := events.PublishPostCreated(pubCtx, event); err != nil {
			log.Error("Failed to publish post.created for %s: %v", event.PostID, err)
		}
	}()
}

// upstream keeps taxonomy errors as they are and classifies the rest as
// upstream failures.
func upstream(op string, err error) error {
	if apperr.Status(err) != http.StatusInternalServerError {
		return err
	}
	return fmt.Errorf("%w: %s: %v", apperr.ErrUpstream, op, err)
}
