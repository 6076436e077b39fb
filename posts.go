package dalleboard

import (
	"context"
	"fmt"
	"time"

	"github.com/eringen/dalleboard/media"
	"github.com/eringen/dalleboard/store"
)

// Logger is the subset of echo.Logger that services log through.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// PostService shares posts: it uploads the photo to the media host and then
// records the hosted URL in the store.
type PostService struct {
	media media.Host
	store store.Store
	cache *PostCache
	log   Logger
}

// NewPostService wires a media host and store together. Lists are cached for ttl.
func NewPostService(host media.Host, s store.Store, ttl time.Duration, log Logger) *PostService {
	return &PostService{
		media: host,
		store: s,
		cache: NewPostCache(s, ttl),
		log:   log,
	}
}

// ListPosts returns every shared post in creation order.
func (s *PostService) ListPosts(ctx context.Context) ([]store.Post, error) {
	return s.cache.ListPosts(ctx)
}

// GetPost returns one post by id.
func (s *PostService) GetPost(ctx context.Context, id string) (store.Post, error) {
	return s.store.GetPost(ctx, id)
}

// CreatePost uploads p.Photo and stores p with the hosted URL in its place.
// Missing fields fail with store.ErrInvalidPost before anything is uploaded.
// If the store write fails the uploaded asset is deleted again.
func (s *PostService) CreatePost(ctx context.Context, p store.Post) (store.Post, error) {
	if err := p.Validate(); err != nil {
		return store.Post{}, err
	}
	asset, err := s.media.Upload(ctx, p.Photo)
	if err != nil {
		return store.Post{}, fmt.Errorf("upload photo: %w", err)
	}
	p.Photo = asset.URL

	created, err := s.store.CreatePost(ctx, p)
	if err != nil {
		// The request context may already be done; cleanup must still run.
		if derr := s.media.Delete(context.WithoutCancel(ctx), asset.PublicID); derr != nil {
			s.log.Errorf("orphaned upload %s after failed store write: %v", asset.URL, derr)
		}
		return store.Post{}, fmt.Errorf("save post: %w", err)
	}
	s.cache.Invalidate()
	s.log.Infof("post %s shared by %q", created.ID, created.Name)
	return created, nil
}
