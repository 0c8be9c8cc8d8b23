package models

import (
	"time"
)

// User is keyed by the identity provider subject, so no id is generated here.
type User struct {
	ID          string    `gorm:"type:varchar(255);primaryKey" json:"id"`
	Username    string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	DisplayName string    `gorm:"type:varchar(255);not null" json:"displayName"`
	AvatarURL   *string   `gorm:"type:text" json:"avatarUrl,omitempty"`
	Bio         string    `gorm:"type:text;not null;default:''" json:"bio"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// NewLazyUser builds the row created the first time a subject is seen.
func NewLazyUser(subject string) *User {
	return &User{
		ID:          subject,
		Username:    "user_" + prefix(subject, 8),
		DisplayName: "User " + prefix(subject, 4),
	}
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
