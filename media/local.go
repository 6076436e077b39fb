package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net"
	"net/http"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1024
	jpegQuality   = 85
	maxUploadSize = 20 << 20 // 20MB
	// UploadsSubdir is the directory under the static dir holding uploads.
	UploadsSubdir = "uploads"
)

// Local hosts images on the application's own static file tree. Images are
// re-encoded as JPEG and served from <BaseURL>/public/uploads/.
type Local struct {
	dir     string
	baseURL string
	client  *http.Client
}

// NewLocal stores uploads under staticDir/uploads and builds URLs from
// siteURL, the externally visible address of the server.
func NewLocal(staticDir, siteURL string) *Local {
	return &Local{
		dir:     filepath.Join(staticDir, UploadsSubdir),
		baseURL: strings.TrimSuffix(siteURL, "/") + "/public/" + UploadsSubdir + "/",
		client:  NewPublicClient(30 * time.Second),
	}
}

// NewPublicClient returns a client that refuses to connect to loopback,
// private, link-local and other non-routable addresses. The check runs
// after DNS resolution and on every redirect hop, and proxies are ignored
// so the dialed address is always the photo host.
func NewPublicClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: dialPublicOnly}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{Timeout: timeout, Transport: transport}
}

func dialPublicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}
	if !isPublicIP(addr) {
		return fmt.Errorf("%w: refusing to fetch from non-public address %s", ErrInvalidPhoto, addr)
	}
	return nil
}

var nonPublicPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"), // carrier-grade NAT
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("64:ff9b::/96"), // NAT64
}

// isPublicIP reports whether addr is a globally routable unicast address.
func isPublicIP(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() || !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return false
	}
	for _, p := range nonPublicPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// Upload decodes photo, downsizes it and writes it as a JPEG with a random name.
func (l *Local) Upload(ctx context.Context, photo string) (Asset, error) {
	src, err := l.open(ctx, photo)
	if err != nil {
		return Asset{}, err
	}
	data, err := processImage(src)
	if err != nil {
		return Asset{}, err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return Asset{}, fmt.Errorf("create uploads dir: %w", err)
	}
	name := uuid.NewString() + ".jpg"
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return Asset{}, fmt.Errorf("write image: %w", err)
	}
	return Asset{URL: l.baseURL + name, PublicID: name}, nil
}

// Delete removes an uploaded file. A missing file is ignored.
func (l *Local) Delete(_ context.Context, publicID string) error {
	if publicID == "" || publicID != filepath.Base(publicID) {
		return fmt.Errorf("media: invalid public id %q", publicID)
	}
	err := os.Remove(filepath.Join(l.dir, publicID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) open(ctx context.Context, photo string) (io.Reader, error) {
	if !IsRemote(photo) {
		_, data, err := DecodeDataURI(photo)
		if err != nil {
			return nil, err
		}
		if len(data) > maxUploadSize {
			return nil, fmt.Errorf("%w: image too large (max 20MB)", ErrInvalidPhoto)
		}
		return bytes.NewReader(data), nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photo, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch photo: http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("fetch photo: %w", err)
	}
	if len(data) > maxUploadSize {
		return nil, fmt.Errorf("%w: image too large (max 20MB)", ErrInvalidPhoto)
	}
	return bytes.NewReader(data), nil
}

// processImage decodes an image, resizes it to maxImageWidth if wider, and
// encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", ErrInvalidPhoto, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

var _ Host = (*Local)(nil)
