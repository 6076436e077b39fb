package dalleboard

import (
	"strings"

	"github.com/eringen/dalleboard/store"
)

// FilterPosts returns the posts whose name or prompt contains q, ignoring
// case. An empty query returns posts unchanged.
func FilterPosts(posts []store.Post, q string) []store.Post {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return posts
	}
	var out []store.Post
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Prompt), q) {
			out = append(out, p)
		}
	}
	return out
}

// NewestFirst returns a reversed copy of posts, which are in creation order.
// The input may be the cache's shared slice and is left untouched.
func NewestFirst(posts []store.Post) []store.Post {
	out := make([]store.Post, len(posts))
	for i, p := range posts {
		out[len(posts)-1-i] = p
	}
	return out
}

// DownloadName is the attachment filename offered for a post's image.
func DownloadName(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return "download-" + b.String() + ".jpg"
}
