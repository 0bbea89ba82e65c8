package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Browser     BrowserConfig
	Scraper     ScraperConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Cache       CacheConfig
	Store       StoreConfig
	Webhook     WebhookConfig
	CORS        CORSConfig
	Diagnostics DiagnosticsConfig
	Log         LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8000
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser process.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// Stealth injects the go-rod/stealth evasions into every session.
	Stealth bool // default: true

	// Proxy is the proxy URL passed to Chrome.
	Proxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls pacing, retries and the per-session profile.
type ScraperConfig struct {
	// MinDelay is the minimum spacing between two navigations.
	MinDelay time.Duration // default: 3s

	// PageTimeout bounds a single navigation plus extraction.
	PageTimeout time.Duration // default: 20s

	// MaxRetries is the number of attempts after the first failure.
	MaxRetries int // default: 2

	// BackoffBase is multiplied by 2^k before retry k.
	BackoffBase time.Duration // default: 1s

	// BackoffMax caps a single backoff; 0 disables the cap.
	BackoffMax time.Duration // default: 30s

	// CloseTimeout bounds closing a session or terminating the browser.
	CloseTimeout time.Duration // default: 5s

	// LaunchTimeout bounds launching and connecting to the browser.
	LaunchTimeout time.Duration // default: 30s

	// SelectorTimeout bounds the wait for job content to render.
	SelectorTimeout time.Duration // default: 15s

	// HumanDelayMin and HumanDelayMax bound the random pause before navigation.
	HumanDelayMin time.Duration // default: 500ms
	HumanDelayMax time.Duration // default: 2s

	// UserAgents is the pool a session's user agent is drawn from.
	UserAgents []string

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys. Empty means open access.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting of the HTTP API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the scraped-posting cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached postings.
	MaxEntries int // default: 500

	// TTL is how long a scraped URL is served from cache; 0 disables caching.
	TTL time.Duration // default: 10m
}

// StoreConfig selects the posting store.
type StoreConfig struct {
	// Backend is "memory" or "redis"; default: "memory".
	Backend string

	RedisAddr     string // default: "localhost:6379"
	RedisPassword string
	RedisDB       int
	RedisPrefix   string // default: "jobscout"
}

// WebhookConfig controls outbound job event notifications.
type WebhookConfig struct {
	// URL receives job events; empty disables webhooks.
	URL string

	// Secret signs payloads with HMAC-SHA256 when non-empty.
	Secret string
}

// CORSConfig controls cross-origin access for the frontend.
type CORSConfig struct {
	AllowedOrigins []string // default: ["http://localhost:5173"]
}

// DiagnosticsConfig controls the repeated-scrape diagnostic endpoint.
type DiagnosticsConfig struct {
	// DefaultURL is scraped when the request names none.
	DefaultURL string

	// MaxRuns caps the runs of a single diagnostic request.
	MaxRuns int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// defaultUserAgents are recent desktop Chrome builds.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("JOBSCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("JOBSCOUT_PORT", 8000),
			Mode: envOr("JOBSCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("JOBSCOUT_HEADLESS", true),
			Stealth:    envBoolOr("JOBSCOUT_STEALTH", true),
			Proxy:      os.Getenv("JOBSCOUT_PROXY"),
			NoSandbox:  envBoolOr("JOBSCOUT_NO_SANDBOX", false),
			BrowserBin: os.Getenv("JOBSCOUT_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			MinDelay:        envDurationOr("JOBSCOUT_MIN_DELAY", 3*time.Second),
			PageTimeout:     envDurationOr("JOBSCOUT_PAGE_TIMEOUT", 20*time.Second),
			MaxRetries:      envIntOr("JOBSCOUT_MAX_RETRIES", 2),
			BackoffBase:     envDurationOr("JOBSCOUT_BACKOFF_BASE", time.Second),
			BackoffMax:      envDurationOr("JOBSCOUT_BACKOFF_MAX", 30*time.Second),
			CloseTimeout:    envDurationOr("JOBSCOUT_CLOSE_TIMEOUT", 5*time.Second),
			LaunchTimeout:   envDurationOr("JOBSCOUT_LAUNCH_TIMEOUT", 30*time.Second),
			SelectorTimeout: envDurationOr("JOBSCOUT_SELECTOR_TIMEOUT", 15*time.Second),
			HumanDelayMin:   envDurationOr("JOBSCOUT_HUMAN_DELAY_MIN", 500*time.Millisecond),
			HumanDelayMax:   envDurationOr("JOBSCOUT_HUMAN_DELAY_MAX", 2*time.Second),
			UserAgents:      envListOr("JOBSCOUT_USER_AGENTS", "|", defaultUserAgents),
			BlockedResourceTypes: envSliceOr("JOBSCOUT_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("JOBSCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("JOBSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("JOBSCOUT_RATE_RPS", 2.0),
			Burst:             envIntOr("JOBSCOUT_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("JOBSCOUT_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("JOBSCOUT_CACHE_TTL", 10*time.Minute),
		},
		Store: StoreConfig{
			Backend:       envOr("JOBSCOUT_STORE", "memory"),
			RedisAddr:     envOr("JOBSCOUT_REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("JOBSCOUT_REDIS_PASSWORD"),
			RedisDB:       envIntOr("JOBSCOUT_REDIS_DB", 0),
			RedisPrefix:   envOr("JOBSCOUT_REDIS_PREFIX", "jobscout"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("JOBSCOUT_WEBHOOK_URL"),
			Secret: os.Getenv("JOBSCOUT_WEBHOOK_SECRET"),
		},
		CORS: CORSConfig{
			AllowedOrigins: envSliceOr("JOBSCOUT_CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		Diagnostics: DiagnosticsConfig{
			DefaultURL: envOr("JOBSCOUT_DIAGNOSTIC_URL", "https://www.linkedin.com/jobs/view/4107690676/"),
			MaxRuns:    envIntOr("JOBSCOUT_DIAGNOSTIC_MAX_RUNS", 5),
		},
		Log: LogConfig{
			Level:  envOr("JOBSCOUT_LOG_LEVEL", "info"),
			Format: envOr("JOBSCOUT_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	return envListOr(key, ",", fallback)
}

// envListOr splits on sep. User agents contain commas, so they use "|".
func envListOr(key, sep string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, sep)
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
