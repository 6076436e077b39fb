// Package media uploads generated images to a host that serves them by URL.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPhoto is returned when a photo is neither a base64 data URI nor
// an http(s) URL.
var ErrInvalidPhoto = errors.New("media: photo must be a base64 data URI or an http(s) URL")

// Asset is a hosted image.
type Asset struct {
	URL string
	// PublicID identifies the asset for Delete.
	PublicID string
}

// Host stores images and serves them by URL.
type Host interface {
	// Upload stores photo, a data URI or a reachable image URL.
	Upload(ctx context.Context, photo string) (Asset, error)
	// Delete removes an uploaded asset. Deleting a missing asset is not an error.
	Delete(ctx context.Context, publicID string) error
}

// DecodeDataURI returns the MIME type and payload of a base64 data URI
// such as "data:image/jpeg;base64,/9j/4AAQ...".
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrInvalidPhoto
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidPhoto
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URI is not base64 encoded", ErrInvalidPhoto)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}
	return mime, data, nil
}

// IsRemote reports whether photo is an http(s) URL.
func IsRemote(photo string) bool {
	return strings.HasPrefix(photo, "https://") || strings.HasPrefix(photo, "http://")
}
