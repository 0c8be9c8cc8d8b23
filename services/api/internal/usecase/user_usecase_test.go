package usecase

import (
	"context"
	"testing"

	"framefeed/pkg/apperr"
	"framefeed/pkg/logger"
	"framefeed/pkg/mediaurl"
	"framefeed/services/api/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserUseCase(users *MockUserRepository, posts *MockPostRepository) UserUseCase {
	return NewUserUseCase(users, posts, mediaurl.New("http://minio:9000", "media"), logger.Nop())
}

func strPtr(s string) *string { return &s }

func TestGetCurrentUser_EnsuresAndRewritesAvatar(t *testing.T) {
	users := new(MockUserRepository)
	users.On("EnsureUser", mock.Anything, "sub-1").Return(&entity.User{
		ID:        "sub-1",
		Username:  "user_sub-1",
		AvatarURL: strPtr("avatars/sub-1/1-me.png"),
	}, nil)

	user, err := newUserUseCase(users, new(MockPostRepository)).GetCurrentUser(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "/media/avatars%2Fsub-1%2F1-me.png", *user.AvatarURL)
	users.AssertExpectations(t)
}

func TestUpdateCurrentUser_Validation(t *testing.T) {
	uc := newUserUseCase(new(MockUserRepository), new(MockPostRepository))

	_, err := uc.UpdateCurrentUser(context.Background(), "u1", entity.UserUpdate{Username: strPtr("a b")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = uc.UpdateCurrentUser(context.Background(), "u1", entity.UserUpdate{DisplayName: strPtr("   ")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateCurrentUser_TrimsAndPassesConflictThrough(t *testing.T) {
	users := new(MockUserRepository)
	users.On("EnsureUser", mock.Anything, "u1").Return(&entity.User{ID: "u1"}, nil)
	users.On("Update", mock.Anything, "u1", entity.UserUpdate{Username: strPtr("taken")}).
		Return(nil, apperr.ErrValidation)

	_, err := newUserUseCase(users, new(MockPostRepository)).
		UpdateCurrentUser(context.Background(), "u1", entity.UserUpdate{Username: strPtr("  taken ")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetProfile_Counts(t *testing.T) {
	users := new(MockUserRepository)
	posts := new(MockPostRepository)
	users.On("GetByUsername", mock.Anything, "sam").Return(&entity.User{ID: "u1", Username: "sam"}, nil)
	posts.On("CountByUser", mock.Anything, "u1").Return(int64(4), nil)
	users.On("FollowerCount", mock.Anything, "u1").Return(int64(10), nil)
	users.On("FollowingCount", mock.Anything, "u1").Return(int64(2), nil)

	profile, err := newUserUseCase(users, posts).GetProfile(context.Background(), "sam")
	require.NoError(t, err)
	assert.Equal(t, "sam", profile.Username)
	assert.Equal(t, int64(4), profile.PostCount)
	assert.Equal(t, int64(10), profile.FollowerCount)
	assert.Equal(t, int64(2), profile.FollowingCount)
}

func TestGetProfile_NotFound(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByUsername", mock.Anything, "ghost").Return(nil, apperr.ErrNotFound)
	users.On("GetByID", mock.Anything, "ghost").Return(nil, apperr.ErrNotFound)

	_, err := newUserUseCase(users, new(MockPostRepository)).GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFollow_Self(t *testing.T) {
	users := new(MockUserRepository)

	err := newUserUseCase(users, new(MockPostRepository)).Follow(context.Background(), "u1", "u1")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	users.AssertNotCalled(t, "Follow", mock.Anything, mock.Anything, mock.Anything)
}

func TestFollow_UnknownTarget(t *testing.T) {
	users := new(MockUserRepository)
	users.On("EnsureUser", mock.Anything, "u1").Return(&entity.User{ID: "u1"}, nil)
	users.On("GetByID", mock.Anything, "u2").Return(nil, apperr.ErrNotFound)

	err := newUserUseCase(users, new(MockPostRepository)).Follow(context.Background(), "u1", "u2")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFollow(t *testing.T) {
	users := new(MockUserRepository)
	users.On("EnsureUser", mock.Anything, "u1").Return(&entity.User{ID: "u1"}, nil)
	users.On("GetByID", mock.Anything, "u2").Return(&entity.User{ID: "u2"}, nil)
	users.On("Follow", mock.Anything, "u1", "u2").Return(nil)

	err := newUserUseCase(users, new(MockPostRepository)).Follow(context.Background(), "u1", "u2")
	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestSearchUsers_EmptyQuery(t *testing.T) {
	users := new(MockUserRepository)

	result, err := newUserUseCase(users, new(MockPostRepository)).SearchUsers(context.Background(), "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, result)
	users.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestNewUsers_DefaultLimit(t *testing.T) {
	users := new(MockUserRepository)
	users.On("Newest", mock.Anything, DefaultPageSize).Return([]*entity.User{{ID: "u1"}}, nil)

	result, err := newUserUseCase(users, new(MockPostRepository)).NewUsers(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, result, 1)
}
