package usecase

import (
	"fmt"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"framefeed/services/api/internal/entity"
)

const (
	postsPrefix   = "posts"
	avatarsPrefix = "avatars"
)

// lastMillis makes key timestamps strictly increasing across the process,
// so two files with the same name in one batch never share a key.
var lastMillis atomic.Int64

var now = time.Now

func nextMillis() int64 {
	for {
		prev := lastMillis.Load()
		ms := now().UnixMilli()
		if ms <= prev {
			ms = prev + 1
		}
		if lastMillis.CompareAndSwap(prev, ms) {
			return ms
		}
	}
}

func objectKey(prefix, userID string, ms int64, fileName string) string {
	return fmt.Sprintf("%s/%s/%d-%s", prefix, userID, ms, baseName(fileName))
}

func baseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := path.Base(name)
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	return base
}

func mediaTypeFor(contentType string) entity.MediaType {
	if strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return entity.MediaTypeVideo
	}
	return entity.MediaTypeImage
}
