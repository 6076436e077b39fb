package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// CloudinaryConfig holds the three Cloudinary credentials.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	// Folder groups uploads in the media library (optional).
	Folder string
	// UploadPrefix overrides the upload API origin, e.g. a regional
	// endpoint (optional).
	UploadPrefix string
}

// Cloudinary uploads images to the Cloudinary media CDN.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary creates a Cloudinary host from credentials.
func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("media: cloudinary cloud name, API key and secret are required")
	}
	conf, err := config.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("media: cloudinary: %w", err)
	}
	if cfg.UploadPrefix != "" {
		conf.API.UploadPrefix = strings.TrimSuffix(cfg.UploadPrefix, "/")
	}
	conf.URL.Secure = true
	cld, err := cloudinary.NewFromConfiguration(*conf)
	if err != nil {
		return nil, fmt.Errorf("media: cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, folder: cfg.Folder}, nil
}

// Upload sends the data URI or URL as-is; Cloudinary accepts both.
func (c *Cloudinary) Upload(ctx context.Context, photo string) (Asset, error) {
	if !IsRemote(photo) {
		if _, _, err := DecodeDataURI(photo); err != nil {
			return Asset{}, err
		}
	}
	resp, err := c.cld.Upload.Upload(ctx, photo, uploader.UploadParams{Folder: c.folder})
	if err != nil {
		return Asset{}, fmt.Errorf("media: cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return Asset{}, fmt.Errorf("media: cloudinary upload: %s", resp.Error.Message)
	}
	url := resp.SecureURL
	if url == "" {
		url = resp.URL
	}
	if url == "" {
		return Asset{}, errors.New("media: cloudinary upload returned no URL")
	}
	return Asset{URL: url, PublicID: resp.PublicID}, nil
}

// Delete destroys an uploaded asset by public id.
func (c *Cloudinary) Delete(ctx context.Context, publicID string) error {
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("media: cloudinary destroy: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("media: cloudinary destroy: %s", resp.Error.Message)
	}
	return nil
}

var _ Host = (*Cloudinary)(nil)
