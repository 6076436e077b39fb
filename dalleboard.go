// Package dalleboard is a small image-generation community board built with
// Go, Echo, and templ. Users type a prompt, get an image back from an
// image-generation API, and share the result to a public gallery.
//
// The App wires together the store, media host, image generator, handlers
// and middleware. External services sit behind the interfaces in the
// store, media and imagegen packages.
package dalleboard

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/eringen/dalleboard/imagegen"
	"github.com/eringen/dalleboard/media"
	"github.com/eringen/dalleboard/store"
	"github.com/eringen/dalleboard/views"
)

// App is the central dalleboard application.
type App struct {
	Config  Config
	Echo    *echo.Echo
	Store   store.Store
	Images  imagegen.Generator
	Media   media.Host
	Posts   *PostService
	Prompts *PromptPicker

	// remote fetches post photos hosted elsewhere for download.
	remote      *http.Client
	initialized bool
}

// Option configures additional App behavior.
type Option func(*App)

// WithStore uses s instead of connecting to Config.DatabaseURL.
func WithStore(s store.Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithImageGenerator uses g instead of the provider named in Config.
func WithImageGenerator(g imagegen.Generator) Option {
	return func(a *App) {
		a.Images = g
	}
}

// WithMediaHost uses h instead of the host named in Config.
func WithMediaHost(h media.Host) Option {
	return func(a *App) {
		a.Media = h
	}
}

// WithPromptPicker replaces the default "surprise me" prompts.
func WithPromptPicker(p *PromptPicker) Option {
	return func(a *App) {
		a.Prompts = p
	}
}

// New creates a new App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		remote: media.NewPublicClient(cfg.RequestTimeout),
	}
	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(parseLogLevel(cfg.LogLevel))

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init connects every external collaborator not supplied through an Option
// and registers middleware and routes. Start calls it; tests call it directly
// and drive a.Echo with httptest.
func (a *App) Init(ctx context.Context) error {
	if a.initialized {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("dalleboard: SessionSecret is required")
	}
	logger := a.Echo.Logger

	if a.Store == nil {
		a.Store = a.connectStore(ctx)
	}
	if a.Images == nil {
		g, err := newGenerator(ctx, a.Config)
		if err != nil {
			logger.Warnf("image generation disabled: %v", err)
			a.Images = unconfiguredGenerator{err: err}
		} else {
			logger.Infof("image generation: %s (%s)", a.Config.ImageProvider, g.Model())
			a.Images = g
		}
	}
	if a.Media == nil {
		h, err := newMediaHost(a.Config)
		if err != nil {
			return fmt.Errorf("dalleboard: init media host: %w", err)
		}
		a.Media = h
	}
	if a.Prompts == nil {
		a.Prompts = NewPromptPicker(DefaultPrompts, nil)
	}
	a.Posts = NewPostService(a.Media, a.Store, a.Config.PostCacheTTL, logger)

	a.setupMiddleware()
	a.setupRoutes()
	a.initialized = true
	return nil
}

// Start initializes the app and starts the server.
func (a *App) Start() error {
	if err := a.Init(context.Background()); err != nil {
		return err
	}
	a.Echo.Logger.Infof("server has started on %s", a.Config.URL)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// connectStore opens the store once. A failed connection is logged and
// replaced by a store that fails every request, so the server still starts.
func (a *App) connectStore(ctx context.Context) store.Store {
	connectCtx, cancel := context.WithTimeout(ctx, a.Config.RequestTimeout)
	defer cancel()
	s, err := store.Open(connectCtx, a.Config.DatabaseURL, store.Options{Database: a.Config.MongoDatabase})
	if err != nil {
		a.Echo.Logger.Errorf("store connection failed: %v", err)
		return store.Unavailable(err)
	}
	a.Echo.Logger.Infof("store connected")
	return s
}

// modelGenerator is a Generator that reports which model it calls.
type modelGenerator interface {
	imagegen.Generator
	Model() string
}

func newGenerator(ctx context.Context, cfg Config) (modelGenerator, error) {
	switch cfg.ImageProvider {
	case "openai":
		return imagegen.NewOpenAI(imagegen.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIImageModel,
			HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
		})
	case "gemini":
		return imagegen.NewGemini(ctx, imagegen.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiImageModel,
			BaseURL: cfg.GeminiBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown image provider %q", cfg.ImageProvider)
	}
}

func newMediaHost(cfg Config) (media.Host, error) {
	switch cfg.MediaHost {
	case "cloudinary":
		return media.NewCloudinary(cfg.Cloudinary)
	case "local":
		return media.NewLocal(cfg.StaticDir, cfg.URL), nil
	default:
		return nil, fmt.Errorf("unknown media host %q", cfg.MediaHost)
	}
}

// unconfiguredGenerator stands in when no provider could be built; every
// generation request reports why.
type unconfiguredGenerator struct {
	err error
}

func (u unconfiguredGenerator) Generate(context.Context, string) (string, error) {
	return "", fmt.Errorf("image generation is not configured: %w", u.err)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded assets (app.js, app.css, preview.svg) are served under
	// /public/ and fall through to the static dir, which holds uploads.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	for _, name := range embeddedFiles {
		e.GET("/public/"+name, echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	}
	e.Static("/public", a.Config.StaticDir)

	timeout := middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: a.Config.RequestTimeout,
	})

	// Web routes
	e.GET("/", a.handleHome)
	e.GET("/create/", a.handleCreate)
	e.POST("/create/", a.handleCreateAction, timeout)
	e.GET("/posts/:id/download/", a.handleDownload, timeout)

	// JSON API
	api := e.Group("/api/v1", apiCORS(), timeout)
	api.GET("", handleAPIRoot)
	api.GET("/dalle", handleDalleGreeting)
	api.POST("/dalle", a.handleGenerate)
	api.GET("/post", a.handleListPosts)
	api.POST("/post", a.handleCreatePost)
	api.GET("/prompt", a.handleRandomPrompt)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func (a *App) siteConfig() views.SiteConfig {
	return views.SiteConfig{Name: a.Config.Name, URL: a.Config.URL}
}

func parseLogLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
