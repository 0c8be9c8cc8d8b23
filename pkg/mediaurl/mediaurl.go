// Package mediaurl maps blob store references onto the public /media/ path
// served by the media proxy, and back.
package mediaurl

import (
	"fmt"
	"net/url"
	"strings"

	"framefeed/pkg/apperr"
)

const Prefix = "/media/"

// Rewriter recognises absolute store URLs only when both Endpoint and Bucket
// are set. A zero Rewriter still turns bare keys into public paths.
type Rewriter struct {
	Endpoint string
	Bucket   string
}

func New(endpoint, bucket string) Rewriter {
	return Rewriter{Endpoint: strings.TrimRight(endpoint, "/"), Bucket: bucket}
}

// ToPublic returns the client-facing form of ref. ok is false for an empty ref.
// Absolute URLs that do not point into the bucket pass through unchanged.
func (r Rewriter) ToPublic(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if strings.HasPrefix(ref, Prefix) {
		return ref, true
	}

	key := ref
	if isAbsolute(ref) {
		k, found := r.keyFromStoreURL(ref)
		if !found {
			return ref, true
		}
		key = k
	}

	return Prefix + url.PathEscape(key), true
}

// MustPublic is ToPublic for fields where empty stays empty.
func (r Rewriter) MustPublic(ref string) string {
	out, _ := r.ToPublic(ref)
	return out
}

func (r Rewriter) keyFromStoreURL(raw string) (string, bool) {
	if r.Endpoint == "" || r.Bucket == "" {
		return "", false
	}
	segment := "/" + r.Bucket + "/"
	idx := strings.Index(raw, segment)
	if idx < 0 {
		return "", false
	}
	rest := raw[idx+len(segment):]
	if q := strings.IndexAny(rest, "?#"); q >= 0 {
		rest = rest[:q]
	}
	decoded, err := url.PathUnescape(rest)
	if err != nil {
		return rest, rest != ""
	}
	return decoded, decoded != ""
}

// KeyFromPath recovers the store key from a /media/ request path.
// The path may be raw (escaped) or already decoded by the router.
func KeyFromPath(path string) (string, error) {
	rest := strings.TrimPrefix(path, Prefix)
	if rest == path {
		rest = strings.TrimPrefix(path, "/")
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("%w: malformed media key", apperr.ErrInvalidRequest)
	}
	if key == "" {
		return "", fmt.Errorf("%w: media key is required", apperr.ErrInvalidRequest)
	}
	return key, nil
}

func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
