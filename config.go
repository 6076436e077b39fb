package dalleboard

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/eringen/dalleboard/media"
)

// Config holds all configuration for a dalleboard server. It is read once at
// startup and passed explicitly to every component.
type Config struct {
	Name string // Site name (default "DALL-E Board")
	URL  string // Externally visible base URL (default "http://localhost:8080")
	Addr string // Listen address (default ":8080")

	StaticDir string // Directory served under /public (default "public")

	DatabaseURL   string // Store URL; mongodb://, postgres:// or sqlite:<path> (default "sqlite:data/dalleboard.db")
	MongoDatabase string // MongoDB database name (default "dalleboard")

	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	PostCacheTTL   time.Duration // Gallery cache TTL (default 1min)
	RequestTimeout time.Duration // Upper bound for upstream calls per request (default 2min)
	BodyLimit      string        // Max request body (default "50M")
	LogLevel       string        // debug, info, warn, error or off (default "info")

	ImageProvider    string // "openai" (default) or "gemini"
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIImageModel string
	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiImageModel string

	MediaHost  string // "cloudinary" or "local" (default: cloudinary when credentials are set)
	Cloudinary media.CloudinaryConfig
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "DALL-E Board"
	}
	if c.URL == "" {
		c.URL = "http://localhost:8080"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = "sqlite:data/dalleboard.db"
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = "dalleboard"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = time.Minute
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 2 * time.Minute
	}
	if c.BodyLimit == "" {
		c.BodyLimit = "50M"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ImageProvider == "" {
		c.ImageProvider = "openai"
	}
	if c.MediaHost == "" {
		if c.Cloudinary.CloudName != "" && c.Cloudinary.APIKey != "" && c.Cloudinary.APISecret != "" {
			c.MediaHost = "cloudinary"
		} else {
			c.MediaHost = "local"
		}
	}
	if c.Cloudinary.Folder == "" {
		c.Cloudinary.Folder = "dalleboard"
	}
}

// ConfigFromEnv builds a Config from environment variables. Call
// godotenv.Load first to pick up a .env file.
func ConfigFromEnv() Config {
	return Config{
		Name:             os.Getenv("SITE_NAME"),
		URL:              os.Getenv("SITE_URL"),
		Addr:             os.Getenv("ADDR"),
		StaticDir:        os.Getenv("STATIC_DIR"),
		DatabaseURL:      EnvOr("MONGODB_URL", os.Getenv("DATABASE_URL")),
		MongoDatabase:    os.Getenv("MONGODB_DATABASE"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		CookieSecure:     strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true"),
		PostCacheTTL:     envDuration("POST_CACHE_TTL"),
		RequestTimeout:   envDuration("REQUEST_TIMEOUT"),
		BodyLimit:        os.Getenv("BODY_LIMIT"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		ImageProvider:    strings.ToLower(os.Getenv("IMAGE_PROVIDER")),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIImageModel: os.Getenv("OPENAI_IMAGE_MODEL"),
		GeminiAPIKey:     EnvOr("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		GeminiBaseURL:    os.Getenv("GEMINI_BASE_URL"),
		GeminiImageModel: os.Getenv("GEMINI_IMAGE_MODEL"),
		MediaHost:        strings.ToLower(os.Getenv("MEDIA_HOST")),
		Cloudinary: media.CloudinaryConfig{
			CloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:       os.Getenv("CLOUDINARY_API_KEY"),
			APISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:       os.Getenv("CLOUDINARY_FOLDER"),
			UploadPrefix: os.Getenv("CLOUDINARY_UPLOAD_PREFIX"),
		},
	}
}

// envDuration parses key as a time.Duration; unset or invalid values yield 0
// so setDefaults applies.
func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("dalleboard: ignoring invalid %s=%q: %v", key, v, err)
		return 0
	}
	return d
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("dalleboard: required environment variable %s is not set", key)
	}
	return v
}
