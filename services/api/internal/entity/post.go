package entity

import "time"

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

const DefaultTag = "General"

type MediaItem struct {
	ID    string    `json:"id"`
	URL   string    `json:"url"`
	Type  MediaType `json:"type"`
	Order int       `json:"order"`
}

type Post struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	Media           []MediaItem `json:"media"`
	ImageURL        string      `json:"imageUrl,omitempty"`
	Caption         string      `json:"caption"`
	Tag             string      `json:"tag"`
	LikesCount      int         `json:"likesCount"`
	CommentsCount   int         `json:"commentsCount"`
	AuthorName      string      `json:"authorName,omitempty"`
	AuthorUsername  string      `json:"authorUsername,omitempty"`
	AuthorAvatarURL *string     `json:"authorAvatarUrl,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

type PostFilter struct {
	UserID string
	Tag    string
	Limit  int
	Offset int
}

type NewMediaItem struct {
	URL   string    `json:"url"`
	Type  MediaType `json:"type"`
	Order int       `json:"order"`
}

type NewPost struct {
	Media   []NewMediaItem `json:"media"`
	Caption string         `json:"caption"`
	Tag     string         `json:"tag"`
}
