package socialmuse

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Store drivers accepted by SiteConfig.StoreDriver.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// SiteConfig holds all configuration for a SocialMuse server.
type SiteConfig struct {
	Name string // Site name (default "SocialMuse")
	Addr string // Listen address (default ":3000")

	StoreDriver  string // sqlite, redis or memory (default sqlite)
	DatabasePath string // SQLite path (default "data/socialmuse.db")
	RedisURL     string // Redis URL (default "redis://localhost:6379/0")

	GeminiAPIKey string // Default key; empty means every browser must select one
	TextModel    string // default "gemini-3-flash-preview"
	ImageModel   string // default "gemini-3-pro-image-preview"

	SessionSecret string // Required: session cookie secret
	CookieSecure  bool   // Set true for HTTPS

	GenerationTimeout time.Duration // per model call (default 2min)
	ModelClientTTL    time.Duration // idle genai client lifetime (default 30min)
	WorkspaceIdle     time.Duration // idle workspace eviction (default 2h)
	ImageMaxWidth     int           // 0 keeps the model's resolution
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "SocialMuse"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.StoreDriver == "" {
		c.StoreDriver = DriverSQLite
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/socialmuse.db"
	}
	if c.RedisURL == "" {
		c.RedisURL = "redis://localhost:6379/0"
	}
	if c.TextModel == "" {
		c.TextModel = "gemini-3-flash-preview"
	}
	if c.ImageModel == "" {
		c.ImageModel = "gemini-3-pro-image-preview"
	}
	if c.GenerationTimeout == 0 {
		c.GenerationTimeout = 2 * time.Minute
	}
	if c.ModelClientTTL == 0 {
		c.ModelClientTTL = 30 * time.Minute
	}
	if c.WorkspaceIdle == 0 {
		c.WorkspaceIdle = 2 * time.Hour
	}
}

// LoadConfig reads the configuration from the environment, loading a .env
// file first when one exists.
func LoadConfig() SiteConfig {
	_ = godotenv.Load()

	cfg := SiteConfig{
		Name:              os.Getenv("SITE_NAME"),
		Addr:              os.Getenv("ADDR"),
		StoreDriver:       strings.ToLower(os.Getenv("STORE_DRIVER")),
		DatabasePath:      os.Getenv("DATABASE_PATH"),
		RedisURL:          os.Getenv("REDIS_URL"),
		GeminiAPIKey:      EnvOr("GEMINI_API_KEY", os.Getenv("API_KEY")),
		TextModel:         os.Getenv("TEXT_MODEL"),
		ImageModel:        os.Getenv("IMAGE_MODEL"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		CookieSecure:      strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true"),
		GenerationTimeout: envDuration("GENERATION_TIMEOUT"),
		ModelClientTTL:    envDuration("MODEL_CLIENT_TTL"),
		WorkspaceIdle:     envDuration("WORKSPACE_IDLE"),
		ImageMaxWidth:     envInt("IMAGE_MAX_WIDTH", 0),
	}
	cfg.setDefaults()
	return cfg
}

// Validate logs configuration that works but is probably not intended.
func (c SiteConfig) Validate(log *zap.Logger) {
	if c.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY is not set, every browser has to select a key")
	}
	if c.StoreDriver == DriverMemory {
		log.Warn("memory store selected, campaigns are lost on restart")
	}
	if !c.CookieSecure {
		log.Info("COOKIE_SECURE is off, session cookies are sent over plain HTTP")
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger replaces the production zap logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *App) {
		a.Logger = log
	}
}

// WithKV makes the App use kv instead of opening the configured driver.
func WithKV(kv KV) Option {
	return func(a *App) {
		a.KV = kv
	}
}

// WithModelSource replaces the genai client cache, e.g. with a fake in tests.
func WithModelSource(src ModelSource) Option {
	return func(a *App) {
		a.models = src
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

// envDuration parses a Go duration ("90s", "2m"). Unset or invalid yields 0,
// which setDefaults replaces.
func envDuration(key string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return 0
	}
	return d
}
