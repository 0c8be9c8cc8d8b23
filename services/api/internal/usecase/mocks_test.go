package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"framefeed/pkg/apperr"
	"framefeed/pkg/s3"
	"framefeed/services/api/internal/entity"

	"github.com/stretchr/testify/mock"
)

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *entity.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, filter entity.PostFilter) ([]*entity.Post, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Post), args.Error(1)
}

func (m *MockPostRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) user(args mock.Arguments) (*entity.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) users(args mock.Arguments) ([]*entity.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.User), args.Error(1)
}

func (m *MockUserRepository) EnsureUser(ctx context.Context, subject string) (*entity.User, error) {
	return m.user(m.Called(ctx, subject))
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *MockUserRepository) Update(ctx context.Context, id string, update entity.UserUpdate) (*entity.User, error) {
	return m.user(m.Called(ctx, id, update))
}

func (m *MockUserRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) (*entity.User, error) {
	return m.user(m.Called(ctx, id, avatarURL))
}

func (m *MockUserRepository) Search(ctx context.Context, query string, limit int) ([]*entity.User, error) {
	return m.users(m.Called(ctx, query, limit))
}

func (m *MockUserRepository) Newest(ctx context.Context, limit int) ([]*entity.User, error) {
	return m.users(m.Called(ctx, limit))
}

func (m *MockUserRepository) ByTag(ctx context.Context, tag string, limit int) ([]*entity.User, error) {
	return m.users(m.Called(ctx, tag, limit))
}

func (m *MockUserRepository) Follow(ctx context.Context, followerID, followingID string) error {
	return m.Called(ctx, followerID, followingID).Error(0)
}

func (m *MockUserRepository) Unfollow(ctx context.Context, followerID, followingID string) error {
	return m.Called(ctx, followerID, followingID).Error(0)
}

func (m *MockUserRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	args := m.Called(ctx, followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Following(ctx context.Context, userID string) ([]*entity.User, error) {
	return m.users(m.Called(ctx, userID))
}

func (m *MockUserRepository) Followers(ctx context.Context, userID string) ([]*entity.User, error) {
	return m.users(m.Called(ctx, userID))
}

func (m *MockUserRepository) FollowerCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) FollowingCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// memoryBlobs is an in-memory BlobStore. Uploads whose key contains failOn are rejected.
type memoryBlobs struct {
	mu       sync.Mutex
	endpoint string
	objects  map[string][]byte
	types    map[string]string
	uploads  int
	deleted  []string
	failOn   string
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{
		endpoint: "http://minio:9000/media",
		objects:  map[string][]byte{},
		types:    map[string]string{},
	}
}

func (b *memoryBlobs) UploadFile(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads++
	if b.failOn != "" && strings.Contains(key, b.failOn) {
		return "", errors.New("connection reset by peer")
	}
	b.objects[key] = data
	b.types[key] = contentType
	return b.endpoint + "/" + key, nil
}

func (b *memoryBlobs) DeleteFile(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *memoryBlobs) Download(ctx context.Context, key, rangeHeader string) (*s3.Download, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, key)
	}
	return &s3.Download{
		Body:          io.NopCloser(bytes.NewReader(data)),
		StatusCode:    200,
		ContentType:   b.types[key],
		ContentLength: int64(len(data)),
	}, nil
}

func (b *memoryBlobs) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type recordingCache struct {
	mu          sync.Mutex
	stored      map[string][]*entity.Post
	invalidated int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{stored: map[string][]*entity.Post{}}
}

func (c *recordingCache) Get(ctx context.Context, filter entity.PostFilter) ([]*entity.Post, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	posts, ok := c.stored[fmt.Sprint(filter)]
	return posts, ok
}

func (c *recordingCache) Set(ctx context.Context, filter entity.PostFilter, posts []*entity.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored[fmt.Sprint(filter)] = posts
}

func (c *recordingCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored = map[string][]*entity.Post{}
	c.invalidated++
}

func memFile(name, contentType string, data []byte) entity.UploadFile {
	return entity.UploadFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
