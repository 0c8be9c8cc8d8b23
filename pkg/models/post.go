package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultTag = "General"

type Post struct {
	ID            string      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string      `gorm:"type:varchar(255);not null;index" json:"userId"`
	Caption       string      `gorm:"type:text;not null;default:''" json:"caption"`
	Tag           string      `gorm:"type:varchar(100);not null;default:'General';index" json:"tag"`
	LikesCount    int         `gorm:"not null;default:0" json:"likesCount"`
	CommentsCount int         `gorm:"not null;default:0" json:"commentsCount"`
	Author        *User       `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Media         []MediaItem `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"media"`
	CreatedAt     time.Time   `gorm:"index" json:"createdAt"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Tag == "" {
		p.Tag = DefaultTag
	}
	return nil
}
