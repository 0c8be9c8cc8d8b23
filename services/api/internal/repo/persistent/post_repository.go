package persistent

import (
	"context"
	"errors"
	"fmt"

	"framefeed/pkg/apperr"
	"framefeed/pkg/models"
	"framefeed/services/api/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	List(ctx context.Context, filter entity.PostFilter) ([]*entity.Post, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create writes the post and all of its media in one transaction.
func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	postModel := ToPostModel(post)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		media := postModel.Media
		postModel.Media = nil

		if err := tx.Omit("Author").Create(postModel).Error; err != nil {
			return err
		}

		for i := range media {
			media[i].PostID = postModel.ID
		}
		if len(media) > 0 {
			if err := tx.Create(&media).Error; err != nil {
				return err
			}
		}
		postModel.Media = media

		*post = *ToPostEntity(postModel)
		return nil
	})
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	// posts.id is a uuid column; anything else can never match.
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: post %s", apperr.ErrNotFound, id)
	}

	var postModel models.Post
	err := r.withRelations(ctx).Where("posts.id = ?", id).First(&postModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: post %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return ToPostEntity(&postModel), nil
}

func (r *postRepository) List(ctx context.Context, filter entity.PostFilter) ([]*entity.Post, error) {
	query := r.withRelations(ctx)
	if filter.UserID != "" {
		query = query.Where("posts.user_id = ?", filter.UserID)
	}
	if filter.Tag != "" {
		query = query.Where("posts.tag = ?", filter.Tag)
	}

	var postModels []models.Post
	if err := query.Order("posts.created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&postModels).Error; err != nil {
		return nil, err
	}

	posts := make([]*entity.Post, len(postModels))
	for i := range postModels {
		posts[i] = ToPostEntity(&postModels[i])
	}
	return posts, nil
}

func (r *postRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *postRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order(models.MediaOrder)
		})
}
