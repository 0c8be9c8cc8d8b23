package usecase

import (
	"framefeed/pkg/mediaurl"
	"framefeed/services/api/internal/entity"
)

// presenter rewrites every stored media reference into its public form on
// the way out.
type presenter struct {
	urls mediaurl.Rewriter
}

func (p presenter) post(post *entity.Post) *entity.Post {
	if post == nil {
		return nil
	}
	out := *post
	out.Media = make([]entity.MediaItem, len(post.Media))
	for i, item := range post.Media {
		item.URL = p.urls.MustPublic(item.URL)
		out.Media[i] = item
	}
	out.ImageURL = p.urls.MustPublic(post.ImageURL)
	if out.ImageURL == "" && len(out.Media) > 0 {
		out.ImageURL = out.Media[0].URL
	}
	out.AuthorAvatarURL = p.optional(post.AuthorAvatarURL)
	return &out
}

func (p presenter) posts(posts []*entity.Post) []*entity.Post {
	out := make([]*entity.Post, len(posts))
	for i, post := range posts {
		out[i] = p.post(post)
	}
	return out
}

func (p presenter) user(user *entity.User) *entity.User {
	if user == nil {
		return nil
	}
	out := *user
	out.AvatarURL = p.optional(user.AvatarURL)
	return &out
}

func (p presenter) users(users []*entity.User) []*entity.User {
	out := make([]*entity.User, len(users))
	for i, user := range users {
		out[i] = p.user(user)
	}
	return out
}

func (p presenter) optional(ref *string) *string {
	if ref == nil {
		return nil
	}
	public, ok := p.urls.ToPublic(*ref)
	if !ok {
		return nil
	}
	return &public
}
