package models

import "time"

type Follow struct {
	FollowerID  string    `gorm:"type:varchar(255);primaryKey" json:"followerId"`
	FollowingID string    `gorm:"type:varchar(255);primaryKey;index" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Follow) TableName() string {
	return "follows"
}
