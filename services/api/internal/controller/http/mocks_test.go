package http

import (
	"context"

	"framefeed/pkg/s3"
	"framefeed/services/api/internal/entity"
	"framefeed/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

type MockPostUseCase struct {
	mock.Mock
}

func (m *MockPostUseCase) ListPosts(ctx context.Context, filter entity.PostFilter) ([]*entity.Post, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) GetPost(ctx context.Context, id string) (*entity.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) CreatePost(ctx context.Context, userID string, input entity.NewPost) (*entity.Post, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

type MockUploadUseCase struct {
	mock.Mock
}

func (m *MockUploadUseCase) CreatePostWithMedia(ctx context.Context, userID string, req entity.UploadRequest) (*entity.Post, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockUploadUseCase) UploadAvatar(ctx context.Context, userID string, file entity.UploadFile) (*entity.User, error) {
	args := m.Called(ctx, userID, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

type MockUserUseCase struct {
	mock.Mock
}

func (m *MockUserUseCase) user(args mock.Arguments) (*entity.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserUseCase) users(args mock.Arguments) ([]*entity.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.User), args.Error(1)
}

func (m *MockUserUseCase) GetCurrentUser(ctx context.Context, subject string) (*entity.User, error) {
	return m.user(m.Called(ctx, subject))
}

func (m *MockUserUseCase) UpdateCurrentUser(ctx context.Context, subject string, update entity.UserUpdate) (*entity.User, error) {
	return m.user(m.Called(ctx, subject, update))
}

func (m *MockUserUseCase) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserUseCase) GetProfile(ctx context.Context, username string) (*entity.UserProfile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserProfile), args.Error(1)
}

func (m *MockUserUseCase) SearchUsers(ctx context.Context, query string, limit int) ([]*entity.User, error) {
	return m.users(m.Called(ctx, query, limit))
}

func (m *MockUserUseCase) NewUsers(ctx context.Context, limit int) ([]*entity.User, error) {
	return m.users(m.Called(ctx, limit))
}

func (m *MockUserUseCase) UsersByTag(ctx context.Context, tag string, limit int) ([]*entity.User, error) {
	return m.users(m.Called(ctx, tag, limit))
}

func (m *MockUserUseCase) Following(ctx context.Context, userID string) ([]*entity.User, error) {
	return m.users(m.Called(ctx, userID))
}

func (m *MockUserUseCase) Followers(ctx context.Context, userID string) ([]*entity.User, error) {
	return m.users(m.Called(ctx, userID))
}

func (m *MockUserUseCase) Follow(ctx context.Context, followerID, targetID string) error {
	return m.Called(ctx, followerID, targetID).Error(0)
}

func (m *MockUserUseCase) Unfollow(ctx context.Context, followerID, targetID string) error {
	return m.Called(ctx, followerID, targetID).Error(0)
}

func (m *MockUserUseCase) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	args := m.Called(ctx, followerID, targetID)
	return args.Bool(0), args.Error(1)
}

type MockMediaUseCase struct {
	mock.Mock
}

func (m *MockMediaUseCase) Open(ctx context.Context, key, rangeHeader string) (*s3.Download, error) {
	args := m.Called(ctx, key, rangeHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.Download), args.Error(1)
}

var (
	_ usecase.PostUseCase   = (*MockPostUseCase)(nil)
	_ usecase.UploadUseCase = (*MockUploadUseCase)(nil)
	_ usecase.UserUseCase   = (*MockUserUseCase)(nil)
	_ usecase.MediaUseCase  = (*MockMediaUseCase)(nil)
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func asUser(userID string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		h(c)
	}
}
