package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 3*time.Second, cfg.Scraper.MinDelay)
	assert.Equal(t, 20*time.Second, cfg.Scraper.PageTimeout)
	assert.Equal(t, 2, cfg.Scraper.MaxRetries)
	assert.Equal(t, time.Second, cfg.Scraper.BackoffBase)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.NotEmpty(t, cfg.Scraper.UserAgents)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JOBSCOUT_MIN_DELAY", "500ms")
	t.Setenv("JOBSCOUT_PAGE_TIMEOUT", "5s")
	t.Setenv("JOBSCOUT_MAX_RETRIES", "4")
	t.Setenv("JOBSCOUT_API_KEYS", "a, b,,c")
	t.Setenv("JOBSCOUT_USER_AGENTS", "UA one (x, y)|UA two")

	cfg := Load()

	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.MinDelay)
	assert.Equal(t, 5*time.Second, cfg.Scraper.PageTimeout)
	assert.Equal(t, 4, cfg.Scraper.MaxRetries)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Auth.APIKeys)
	assert.Equal(t, []string{"UA one (x, y)", "UA two"}, cfg.Scraper.UserAgents)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JOBSCOUT_MAX_RETRIES", "lots")
	t.Setenv("JOBSCOUT_MIN_DELAY", "soon")
	t.Setenv("JOBSCOUT_HEADLESS", "maybe")

	cfg := Load()

	assert.Equal(t, 2, cfg.Scraper.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.Scraper.MinDelay)
	assert.True(t, cfg.Browser.Headless)
}
