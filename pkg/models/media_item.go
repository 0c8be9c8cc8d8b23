package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// MediaItem is one ordered image or video of a post. URL holds whatever the
// storage layer returned at upload time.
type MediaItem struct {
	ID     string    `gorm:"type:uuid;primaryKey" json:"id"`
	PostID string    `gorm:"type:uuid;not null;index" json:"-"`
	URL    string    `gorm:"type:text;not null" json:"url"`
	Type   MediaType `gorm:"type:varchar(10);not null" json:"type"`
	Order  int       `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (MediaItem) TableName() string {
	return "post_media"
}

func (m *MediaItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// MediaOrder is the ORDER BY clause for preloading post media.
const MediaOrder = "post_media.sort_order ASC"
