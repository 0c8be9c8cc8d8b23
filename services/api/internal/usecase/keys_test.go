package usecase

import (
	"testing"
	"time"

	"framefeed/services/api/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestNextMillis_StrictlyIncreasing(t *testing.T) {
	frozen := time.Now().Add(time.Hour)
	now = func() time.Time { return frozen }
	defer func() { now = time.Now }()

	first := nextMillis()
	second := nextMillis()
	third := nextMillis()

	assert.GreaterOrEqual(t, first, frozen.UnixMilli())
	assert.Equal(t, first+1, second)
	assert.Equal(t, second+1, third)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "posts/u1/42-cat.jpg", objectKey(postsPrefix, "u1", 42, "cat.jpg"))
	assert.Equal(t, "avatars/u1/7-me.png", objectKey(avatarsPrefix, "u1", 7, `C:\Users\me\me.png`))
	assert.Equal(t, "posts/u1/1-file", objectKey(postsPrefix, "u1", 1, ""))
}

func TestMediaTypeFor(t *testing.T) {
	assert.Equal(t, entity.MediaTypeVideo, mediaTypeFor("video/mp4"))
	assert.Equal(t, entity.MediaTypeVideo, mediaTypeFor("Video/QuickTime"))
	assert.Equal(t, entity.MediaTypeImage, mediaTypeFor("image/png"))
	assert.Equal(t, entity.MediaTypeImage, mediaTypeFor(""))
}
