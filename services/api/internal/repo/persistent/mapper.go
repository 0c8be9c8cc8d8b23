package persistent

import (
	"framefeed/pkg/models"
	"framefeed/services/api/internal/entity"
)

func ToPostEntity(m *models.Post) *entity.Post {
	if m == nil {
		return nil
	}

	post := &entity.Post{
		ID:            m.ID,
		UserID:        m.UserID,
		Caption:       m.Caption,
		Tag:           m.Tag,
		LikesCount:    m.LikesCount,
		CommentsCount: m.CommentsCount,
		CreatedAt:     m.CreatedAt,
		Media:         make([]entity.MediaItem, 0, len(m.Media)),
	}

	for _, item := range m.Media {
		post.Media = append(post.Media, ToMediaItemEntity(item))
	}
	if len(post.Media) > 0 {
		post.ImageURL = post.Media[0].URL
	}

	if m.Author != nil {
		post.AuthorName = m.Author.DisplayName
		post.AuthorUsername = m.Author.Username
		post.AuthorAvatarURL = m.Author.AvatarURL
	}

	return post
}

func ToPostModel(e *entity.Post) *models.Post {
	if e == nil {
		return nil
	}

	post := &models.Post{
		ID:            e.ID,
		UserID:        e.UserID,
		Caption:       e.Caption,
		Tag:           e.Tag,
		LikesCount:    e.LikesCount,
		CommentsCount: e.CommentsCount,
		CreatedAt:     e.CreatedAt,
	}

	if len(e.Media) > 0 {
		post.Media = make([]models.MediaItem, len(e.Media))
		for i, item := range e.Media {
			post.Media[i] = ToMediaItemModel(item)
		}
	}

	return post
}

func ToMediaItemEntity(m models.MediaItem) entity.MediaItem {
	return entity.MediaItem{
		ID:    m.ID,
		URL:   m.URL,
		Type:  entity.MediaType(m.Type),
		Order: m.Order,
	}
}

func ToMediaItemModel(e entity.MediaItem) models.MediaItem {
	return models.MediaItem{
		ID:    e.ID,
		URL:   e.URL,
		Type:  models.MediaType(e.Type),
		Order: e.Order,
	}
}

func ToUserEntity(m *models.User) *entity.User {
	if m == nil {
		return nil
	}

	return &entity.User{
		ID:          m.ID,
		Username:    m.Username,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		Bio:         m.Bio,
		CreatedAt:   m.CreatedAt,
	}
}

func toUserEntities(ms []models.User) []*entity.User {
	users := make([]*entity.User, len(ms))
	for i := range ms {
		users[i] = ToUserEntity(&ms[i])
	}
	return users
}
