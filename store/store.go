// Package store persists shared posts. It hides three document-store
// backends (MongoDB, Postgres, SQLite) behind one interface and picks the
// backend from the connection URL.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = errors.New("store: post not found")

// ErrInvalidPost is returned when a post is missing a required field.
var ErrInvalidPost = errors.New("store: name, prompt and photo are required")

// Post is a shared image and the prompt that produced it.
type Post struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Prompt    string    `json:"prompt"`
	Photo     string    `json:"photo"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate reports ErrInvalidPost when any of the three required fields is empty.
func (p Post) Validate() error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Prompt) == "" || strings.TrimSpace(p.Photo) == "" {
		return ErrInvalidPost
	}
	return nil
}

// Store is the document collection holding posts. Posts are insert-only.
type Store interface {
	// CreatePost inserts p and returns it with ID and CreatedAt assigned.
	CreatePost(ctx context.Context, p Post) (Post, error)
	// ListPosts returns every post in creation order.
	ListPosts(ctx context.Context) ([]Post, error)
	// GetPost returns a single post or ErrNotFound.
	GetPost(ctx context.Context, id string) (Post, error)
	Close() error
}

// Options tunes backend-specific settings that cannot live in the URL.
type Options struct {
	// Database is the MongoDB database name (default "dalleboard").
	Database string
}

// Open connects to the store named by url:
//
//	mongodb://... or mongodb+srv://...  MongoDB
//	postgres://... or postgresql://...   Postgres
//	sqlite:<path> or a bare file path    SQLite
func Open(ctx context.Context, url string, opts Options) (Store, error) {
	if opts.Database == "" {
		opts.Database = "dalleboard"
	}
	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return NewMongo(ctx, url, opts.Database)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgres(ctx, url)
	case strings.HasPrefix(url, "sqlite:"):
		return NewSQLite(strings.TrimPrefix(url, "sqlite:"))
	case url == "":
		return nil, fmt.Errorf("store: empty connection url")
	case strings.Contains(url, "://"):
		return nil, fmt.Errorf("store: unsupported connection url scheme in %q", redact(url))
	default:
		return NewSQLite(url)
	}
}

// redact strips credentials from a connection URL before it reaches a log line.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}

// unavailable is installed when the startup connection failed. Every call
// reports the original connection error.
type unavailable struct {
	err error
}

// Unavailable returns a Store whose operations all fail with err.
func Unavailable(err error) Store {
	return unavailable{err: fmt.Errorf("store: not connected: %w", err)}
}

func (u unavailable) CreatePost(context.Context, Post) (Post, error) { return Post{}, u.err }
func (u unavailable) ListPosts(context.Context) ([]Post, error)      { return nil, u.err }
func (u unavailable) GetPost(context.Context, string) (Post, error)  { return Post{}, u.err }
func (u unavailable) Close() error                                   { return nil }
