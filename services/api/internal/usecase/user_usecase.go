package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"framefeed/pkg/apperr"
	"framefeed/pkg/logger"
	"framefeed/pkg/mediaurl"
	"framefeed/services/api/internal/entity"
	"framefeed/services/api/internal/repo/persistent"
)

const (
	maxDisplayNameLen = 50
	maxBioLen         = 500
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,64}$`)

type UserUseCase interface {
	GetCurrentUser(ctx context.Context, subject string) (*entity.User, error)
	UpdateCurrentUser(ctx context.Context, subject string, update entity.UserUpdate) (*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	GetProfile(ctx context.Context, username string) (*entity.UserProfile, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]*entity.User, error)
	NewUsers(ctx context.Context, limit int) ([]*entity.User, error)
	UsersByTag(ctx context.Context, tag string, limit int) ([]*entity.User, error)
	Following(ctx context.Context, userID string) ([]*entity.User, error)
	Followers(ctx context.Context, userID string) ([]*entity.User, error)
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
	IsFollowing(ctx context.Context, followerID, targetID string) (bool, error)
}

type userUseCase struct {
	userRepo persistent.UserRepository
	postRepo persistent.PostRepository
	present  presenter
	logger   *logger.Logger
}

func NewUserUseCase(userRepo persistent.UserRepository, postRepo persistent.PostRepository, urls mediaurl.Rewriter, logger *logger.Logger) UserUseCase {
	return &userUseCase{
		userRepo: userRepo,
		postRepo: postRepo,
		present:  presenter{urls: urls},
		logger:   logger,
	}
}

// GetCurrentUser returns the caller, creating their row on first sight.
func (uc *userUseCase) GetCurrentUser(ctx context.Context, subject string) (*entity.User, error) {
	user, err := uc.userRepo.EnsureUser(ctx, subject)
	if err != nil {
		return nil, upstream("ensure user", err)
	}
	return uc.present.user(user), nil
}

func (uc *userUseCase) UpdateCurrentUser(ctx context.Context, subject string, update entity.UserUpdate) (*entity.User, error) {
	if err := validateUpdate(&update); err != nil {
		return nil, err
	}

	if _, err := uc.userRepo.EnsureUser(ctx, subject); err != nil {
		return nil, upstream("ensure user", err)
	}

	user, err := uc.userRepo.Update(ctx, subject, update)
	if err != nil {
		return nil, upstream("update user", err)
	}
	return uc.present.user(user), nil
}

func (uc *userUseCase) GetUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, upstream("get user", err)
	}
	return uc.present.user(user), nil
}

// GetProfile looks the user up by username, then by id.
func (uc *userUseCase) GetProfile(ctx context.Context, username string) (*entity.UserProfile, error) {
	user, err := uc.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		user, err = uc.userRepo.GetByID(ctx, username)
	}
	if err != nil {
		return nil, upstream("get profile", err)
	}

	profile := &entity.UserProfile{User: *uc.present.user(user)}
	if profile.PostCount, err = uc.postRepo.CountByUser(ctx, user.ID); err != nil {
		return nil, upstream("count posts", err)
	}
	if profile.FollowerCount, err = uc.userRepo.FollowerCount(ctx, user.ID); err != nil {
		return nil, upstream("count followers", err)
	}
	if profile.FollowingCount, err = uc.userRepo.FollowingCount(ctx, user.ID); err != nil {
		return nil, upstream("count following", err)
	}
	return profile, nil
}

func (uc *userUseCase) SearchUsers(ctx context.Context, query string, limit int) ([]*entity.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*entity.User{}, nil
	}
	users, err := uc.userRepo.Search(ctx, query, pageSize(limit))
	if err != nil {
		return nil, upstream("search users", err)
	}
	return uc.present.users(users), nil
}

func (uc *userUseCase) NewUsers(ctx context.Context, limit int) ([]*entity.User, error) {
	users, err := uc.userRepo.Newest(ctx, pageSize(limit))
	if err != nil {
		return nil, upstream("new users", err)
	}
	return uc.present.users(users), nil
}

func (uc *userUseCase) UsersByTag(ctx context.Context, tag string, limit int) ([]*entity.User, error) {
	users, err := uc.userRepo.ByTag(ctx, tag, pageSize(limit))
	if err != nil {
		return nil, upstream("users by tag", err)
	}
	return uc.present.users(users), nil
}

func (uc *userUseCase) Following(ctx context.Context, userID string) ([]*entity.User, error) {
	users, err := uc.userRepo.Following(ctx, userID)
	if err != nil {
		return nil, upstream("following", err)
	}
	return uc.present.users(users), nil
}

func (uc *userUseCase) Followers(ctx context.Context, userID string) ([]*entity.User, error) {
	users, err := uc.userRepo.Followers(ctx, userID)
	if err != nil {
		return nil, upstream("followers", err)
	}
	return uc.present.users(users), nil
}

func (uc *userUseCase) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return fmt.Errorf("%w: you cannot follow yourself", apperr.ErrValidation)
	}
	if _, err := uc.userRepo.EnsureUser(ctx, followerID); err != nil {
		return upstream("ensure user", err)
	}
	if _, err := uc.userRepo.GetByID(ctx, targetID); err != nil {
		return upstream("get user", err)
	}
	if err := uc.userRepo.Follow(ctx, followerID, targetID); err != nil {
		return upstream("follow", err)
	}
	return nil
}

func (uc *userUseCase) Unfollow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return fmt.Errorf("%w: you cannot unfollow yourself", apperr.ErrValidation)
	}
	if err := uc.userRepo.Unfollow(ctx, followerID, targetID); err != nil {
		return upstream("unfollow", err)
	}
	return nil
}

func (uc *userUseCase) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	following, err := uc.userRepo.IsFollowing(ctx, followerID, targetID)
	if err != nil {
		return false, upstream("is following", err)
	}
	return following, nil
}

func validateUpdate(update *entity.UserUpdate) error {
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if !usernamePattern.MatchString(username) {
			return fmt.Errorf("%w: username must be 3-64 letters, digits, '_' or '.'", apperr.ErrValidation)
		}
		update.Username = &username
	}
	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if name == "" || utf8.RuneCountInString(name) > maxDisplayNameLen {
			return fmt.Errorf("%w: display name must be 1-%d characters", apperr.ErrValidation, maxDisplayNameLen)
		}
		update.DisplayName = &name
	}
	if update.Bio != nil && utf8.RuneCountInString(*update.Bio) > maxBioLen {
		return fmt.Errorf("%w: bio must be at most %d characters", apperr.ErrValidation, maxBioLen)
	}
	return nil
}

func pageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
