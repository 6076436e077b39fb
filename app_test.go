package dalleboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/eringen/dalleboard/media"
	"github.com/eringen/dalleboard/store"
)

type fakeGenerator struct {
	mu      sync.Mutex
	photo   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.photo, nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeHost struct {
	mu        sync.Mutex
	uploadErr error
	uploads   []string
	deleted   []string
}

func (h *fakeHost) Upload(_ context.Context, photo string) (media.Asset, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.uploadErr != nil {
		return media.Asset{}, h.uploadErr
	}
	h.uploads = append(h.uploads, photo)
	id := fmt.Sprintf("asset-%d", len(h.uploads))
	return media.Asset{URL: "https://media.test/" + id + ".jpg", PublicID: id}, nil
}

func (h *fakeHost) Delete(_ context.Context, publicID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, publicID)
	return nil
}

// failingStore wraps a store and fails every CreatePost.
type failingStore struct {
	store.Store
	err error
}

func (s failingStore) CreatePost(context.Context, store.Post) (store.Post, error) {
	return store.Post{}, s.err
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

func setupTestSQLite(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type testApp struct {
	*App
	gen  *fakeGenerator
	host *fakeHost
}

// setupTestApp builds an initialized App over a temp SQLite store with a fake
// generator and media host. Extra options override the defaults.
func setupTestApp(t *testing.T, opts ...Option) *testApp {
	t.Helper()
	gen := &fakeGenerator{photo: "aGVsbG8gd29ybGQ="}
	host := &fakeHost{}

	all := append([]Option{
		WithStore(setupTestSQLite(t)),
		WithImageGenerator(gen),
		WithMediaHost(host),
	}, opts...)
	a := New(Config{
		SessionSecret: "test-secret",
		StaticDir:     t.TempDir(),
		LogLevel:      "off",
	}, all...)
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	a.Echo.Logger.SetLevel(log.OFF)
	return &testApp{App: a, gen: gen, host: host}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return a.do(req)
}

func (a *testApp) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

// postForm submits the create form with a CSRF token obtained from GET /create/.
func (a *testApp) postForm(t *testing.T, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	csrf := a.csrfCookie(t)
	values.Set("_csrf", csrf.Value)
	req := httptest.NewRequest(http.MethodPost, "/create/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(csrf)
	return a.do(req)
}

func (a *testApp) csrfCookie(t *testing.T) *http.Cookie {
	t.Helper()
	rec := a.get("/create/")
	if c := findCookie(rec, "_csrf"); c != nil {
		return c
	}
	t.Fatalf("GET /create/ did not set a _csrf cookie")
	return nil
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func body(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	b, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

var errUpstream = errors.New("upstream is down")

func TestInitRequiresSessionSecret(t *testing.T) {
	a := New(Config{}, WithStore(setupTestSQLite(t)), WithImageGenerator(&fakeGenerator{}), WithMediaHost(&fakeHost{}))
	if err := a.Init(context.Background()); err == nil {
		t.Fatal("expected error without a session secret")
	}
}

func TestInitUnreachableStoreStillServes(t *testing.T) {
	a := New(Config{
		SessionSecret: "test-secret",
		DatabaseURL:   "mysql://nowhere",
		LogLevel:      "off",
		StaticDir:     t.TempDir(),
	}, WithImageGenerator(&fakeGenerator{}), WithMediaHost(&fakeHost{}))
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init should not fail on a bad store: %v", err)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/post", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 from an unavailable store, got %d", rec.Code)
	}
}

func TestUnknownImageProviderFailsRequests(t *testing.T) {
	a := New(Config{
		SessionSecret: "test-secret",
		ImageProvider: "midjourney",
		LogLevel:      "off",
		StaticDir:     t.TempDir(),
	}, WithStore(setupTestSQLite(t)), WithMediaHost(&fakeHost{}))
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := a.Images.Generate(context.Background(), "cat"); err == nil {
		t.Error("expected the unconfigured generator to fail")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]log.Lvl{
		"debug": log.DEBUG,
		"WARN":  log.WARN,
		"error": log.ERROR,
		"off":   log.OFF,
		"":      log.INFO,
		"loud":  log.INFO,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewGeneratorUsesConfiguredEndpoints(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, ":generateContent") {
			io.WriteString(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"aGk="}}]}}]}`)
			return
		}
		io.WriteString(w, `{"created":1,"data":[{"b64_json":"aGk="}]}`)
	}))
	defer srv.Close()

	tests := []struct {
		cfg       Config
		wantModel string
		wantPath  string
	}{
		{
			cfg:       Config{ImageProvider: "openai", OpenAIAPIKey: "k", OpenAIBaseURL: srv.URL + "/v1", RequestTimeout: time.Minute},
			wantModel: "dall-e-2",
			wantPath:  "/v1/images/generations",
		},
		{
			cfg:       Config{ImageProvider: "gemini", GeminiAPIKey: "k", GeminiBaseURL: srv.URL, GeminiImageModel: "test-image-model"},
			wantModel: "test-image-model",
			wantPath:  "/models/test-image-model:generateContent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.ImageProvider, func(t *testing.T) {
			paths = nil
			g, err := newGenerator(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("newGenerator: %v", err)
			}
			if g.Model() != tt.wantModel {
				t.Errorf("Model() = %q, want %q", g.Model(), tt.wantModel)
			}
			photo, err := g.Generate(context.Background(), "a cat")
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if photo != "aGk=" {
				t.Errorf("photo = %q", photo)
			}
			if len(paths) != 1 || !strings.HasSuffix(paths[0], tt.wantPath) {
				t.Errorf("requests = %v, want one to %s", paths, tt.wantPath)
			}
		})
	}
}
