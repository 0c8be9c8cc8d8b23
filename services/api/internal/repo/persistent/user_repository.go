package persistent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"framefeed/pkg/apperr"
	"framefeed/pkg/models"
	"framefeed/services/api/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	EnsureUser(ctx context.Context, subject string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	Update(ctx context.Context, id string, update entity.UserUpdate) (*entity.User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (*entity.User, error)
	Search(ctx context.Context, query string, limit int) ([]*entity.User, error)
	Newest(ctx context.Context, limit int) ([]*entity.User, error)
	ByTag(ctx context.Context, tag string, limit int) ([]*entity.User, error)

	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	Following(ctx context.Context, userID string) ([]*entity.User, error)
	Followers(ctx context.Context, userID string) ([]*entity.User, error)
	FollowerCount(ctx context.Context, userID string) (int64, error)
	FollowingCount(ctx context.Context, userID string) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// EnsureUser creates the row for subject on first sight and returns it.
// Concurrent calls for the same subject are safe.
func (r *userRepository) EnsureUser(ctx context.Context, subject string) (*entity.User, error) {
	db := r.db.WithContext(ctx)

	user := models.NewLazyUser(subject)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", subject, err)
	}

	existing, err := r.GetByID(ctx, subject)
	if err == nil || !errors.Is(err, apperr.ErrNotFound) {
		return existing, err
	}

	// The generated username was taken by someone else; fall back to the full subject.
	user.Username = "user_" + subject
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", subject, err)
	}
	return r.GetByID(ctx, subject)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) Update(ctx context.Context, id string, update entity.UserUpdate) (*entity.User, error) {
	db := r.db.WithContext(ctx)
	changes := map[string]interface{}{}

	if update.Username != nil {
		var taken int64
		if err := db.Model(&models.User{}).Where("username = ? AND id <> ?", *update.Username, id).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, fmt.Errorf("%w: username %q is already taken", apperr.ErrValidation, *update.Username)
		}
		changes["username"] = *update.Username
	}
	if update.DisplayName != nil {
		changes["display_name"] = *update.DisplayName
	}
	if update.Bio != nil {
		changes["bio"] = *update.Bio
	}

	if len(changes) > 0 {
		res := db.Model(&models.User{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
		}
	}

	return r.GetByID(ctx, id)
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) (*entity.User, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("avatar_url", avatarURL)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]*entity.User, error) {
	pattern := "%" + escapeLike(query) + "%"
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("username ILIKE ? OR display_name ILIKE ?", pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return toUserEntities(users), nil
}

func (r *userRepository) Newest(ctx context.Context, limit int) ([]*entity.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return toUserEntities(users), nil
}

func (r *userRepository) ByTag(ctx context.Context, tag string, limit int) ([]*entity.User, error) {
	db := r.db.WithContext(ctx)
	authors := db.Model(&models.Post{}).Select("DISTINCT user_id").Where("tag = ?", tag)

	var users []models.User
	if err := db.Where("id IN (?)", authors).Order("username ASC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return toUserEntities(users), nil
}

func (r *userRepository) Follow(ctx context.Context, followerID, followingID string) error {
	follow := &models.Follow{FollowerID: followerID, FollowingID: followingID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(follow).Error
}

func (r *userRepository) Unfollow(ctx context.Context, followerID, followingID string) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
}

func (r *userRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) Following(ctx context.Context, userID string) ([]*entity.User, error) {
	return r.related(ctx, "follows.following_id = users.id", "follows.follower_id = ?", userID)
}

func (r *userRepository) Followers(ctx context.Context, userID string) ([]*entity.User, error) {
	return r.related(ctx, "follows.follower_id = users.id", "follows.following_id = ?", userID)
}

func (r *userRepository) FollowerCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *userRepository) FollowingCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *userRepository) related(ctx context.Context, join, where, userID string) ([]*entity.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON "+join).
		Where(where, userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return toUserEntities(users), nil
}

func (r *userRepository) first(ctx context.Context, query string, arg string) (*entity.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, arg)
		}
		return nil, err
	}
	return ToUserEntity(&user), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
