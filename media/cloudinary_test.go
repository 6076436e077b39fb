package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// stubCloudinary serves the upload API for cloud "demo" and records the
// decoded form of every request by path.
func stubCloudinary(t *testing.T, replies map[string]string) (*Cloudinary, map[string]url.Values) {
	t.Helper()
	forms := map[string]url.Values{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply, ok := replies[r.URL.Path]
		if !ok || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		if err != nil {
			t.Errorf("parse form: %v", err)
		}
		forms[r.URL.Path] = form
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	host, err := NewCloudinary(CloudinaryConfig{
		CloudName:    "demo",
		APIKey:       "key",
		APISecret:    "secret",
		Folder:       "dalleboard",
		UploadPrefix: srv.URL + "/",
	})
	if err != nil {
		t.Fatalf("NewCloudinary failed: %v", err)
	}
	return host, forms
}

const (
	uploadPath  = "/v1_1/demo/auto/upload"
	destroyPath = "/v1_1/demo/image/destroy"
)

func TestNewCloudinaryRequiresCredentials(t *testing.T) {
	if _, err := NewCloudinary(CloudinaryConfig{CloudName: "demo"}); err == nil {
		t.Fatal("expected error with missing key and secret")
	}
}

func TestCloudinaryUploadRejectsInvalidPhoto(t *testing.T) {
	host, err := NewCloudinary(CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret"})
	if err != nil {
		t.Fatalf("NewCloudinary failed: %v", err)
	}
	if _, err := host.Upload(context.Background(), "plain text"); !errors.Is(err, ErrInvalidPhoto) {
		t.Errorf("expected ErrInvalidPhoto, got %v", err)
	}
}

func TestCloudinaryUploadPrefersSecureURL(t *testing.T) {
	host, forms := stubCloudinary(t, map[string]string{
		uploadPath: `{"public_id":"dalleboard/abc","url":"http://res.cloudinary.com/demo/abc.png","secure_url":"https://res.cloudinary.com/demo/abc.png"}`,
	})
	photo := dataURI("image/png", testPNG(t, 4, 4))

	asset, err := host.Upload(context.Background(), photo)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if asset.URL != "https://res.cloudinary.com/demo/abc.png" {
		t.Errorf("URL = %q, want the secure URL", asset.URL)
	}
	if asset.PublicID != "dalleboard/abc" {
		t.Errorf("PublicID = %q", asset.PublicID)
	}

	form := forms[uploadPath]
	if form.Get("file") != photo {
		t.Error("file field should carry the data URI unchanged")
	}
	if form.Get("folder") != "dalleboard" {
		t.Errorf("folder = %q", form.Get("folder"))
	}
	if form.Get("api_key") != "key" || form.Get("signature") == "" {
		t.Errorf("upload should be signed, got api_key=%q signature=%q", form.Get("api_key"), form.Get("signature"))
	}
}

func TestCloudinaryUploadFallsBackToURL(t *testing.T) {
	host, _ := stubCloudinary(t, map[string]string{
		uploadPath: `{"public_id":"dalleboard/abc","url":"http://res.cloudinary.com/demo/abc.png"}`,
	})

	asset, err := host.Upload(context.Background(), "https://images.example.com/cat.png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if asset.URL != "http://res.cloudinary.com/demo/abc.png" {
		t.Errorf("URL = %q", asset.URL)
	}
}

func TestCloudinaryUploadErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"api error", `{"error":{"message":"Invalid image file"}}`, "Invalid image file"},
		{"no url", `{"public_id":"dalleboard/abc"}`, "returned no URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, _ := stubCloudinary(t, map[string]string{uploadPath: tt.reply})
			_, err := host.Upload(context.Background(), "https://images.example.com/cat.png")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestCloudinaryDelete(t *testing.T) {
	host, forms := stubCloudinary(t, map[string]string{
		destroyPath: `{"result":"ok"}`,
	})

	if err := host.Delete(context.Background(), "dalleboard/abc"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got := forms[destroyPath].Get("public_id"); got != "dalleboard/abc" {
		t.Errorf("public_id = %q", got)
	}
}

func TestCloudinaryDeleteError(t *testing.T) {
	host, _ := stubCloudinary(t, map[string]string{
		destroyPath: `{"error":{"message":"Resource not found"}}`,
	})

	err := host.Delete(context.Background(), "dalleboard/missing")
	if err == nil || !strings.Contains(err.Error(), "Resource not found") {
		t.Errorf("err = %v, want the API error message", err)
	}
}
