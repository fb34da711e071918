package socialmuse

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SITE_NAME", "Muse")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "fallback-key")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("COOKIE_SECURE", "TRUE")
	t.Setenv("GENERATION_TIMEOUT", "90s")
	t.Setenv("MODEL_CLIENT_TTL", "not-a-duration")
	t.Setenv("IMAGE_MAX_WIDTH", "1024")

	cfg := LoadConfig()

	if cfg.Name != "Muse" || cfg.StoreDriver != DriverRedis || cfg.RedisURL != "redis://cache:6379/2" {
		t.Errorf("site/store fields = %q %q %q", cfg.Name, cfg.StoreDriver, cfg.RedisURL)
	}
	if cfg.GeminiAPIKey != "fallback-key" {
		t.Errorf("GeminiAPIKey = %q, want the API_KEY fallback", cfg.GeminiAPIKey)
	}
	if !cfg.CookieSecure || cfg.SessionSecret != "s3cret" {
		t.Errorf("cookie fields = %v %q", cfg.CookieSecure, cfg.SessionSecret)
	}
	if cfg.GenerationTimeout != 90*time.Second {
		t.Errorf("GenerationTimeout = %v", cfg.GenerationTimeout)
	}
	if cfg.ModelClientTTL != 30*time.Minute {
		t.Errorf("invalid MODEL_CLIENT_TTL should fall back to the default, got %v", cfg.ModelClientTTL)
	}
	if cfg.ImageMaxWidth != 1024 {
		t.Errorf("ImageMaxWidth = %d", cfg.ImageMaxWidth)
	}
}

func TestSiteConfigDefaults(t *testing.T) {
	var cfg SiteConfig
	cfg.setDefaults()
	want := SiteConfig{
		Name:              "SocialMuse",
		Addr:              ":3000",
		StoreDriver:       DriverSQLite,
		DatabasePath:      "data/socialmuse.db",
		RedisURL:          "redis://localhost:6379/0",
		TextModel:         "gemini-3-flash-preview",
		ImageModel:        "gemini-3-pro-image-preview",
		GenerationTimeout: 2 * time.Minute,
		ModelClientTTL:    30 * time.Minute,
		WorkspaceIdle:     2 * time.Hour,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenKVUnknownDriver(t *testing.T) {
	if _, err := OpenKV(t.Context(), SiteConfig{StoreDriver: "mongo"}); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
	kv, err := OpenKV(t.Context(), SiteConfig{StoreDriver: DriverMemory})
	if err != nil {
		t.Fatalf("OpenKV(memory): %v", err)
	}
	if _, ok := kv.(*MemoryKV); !ok {
		t.Errorf("OpenKV(memory) = %T", kv)
	}
}
