package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediabot/internal/models"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Limits.MaxBulkItems)
	assert.Equal(t, int64(2000<<20), cfg.Limits.MaxFileSizeBytes())
	assert.Equal(t, int64(50<<20), cfg.Limits.MaxDeliverySizeBytes())
	assert.Equal(t, 2*time.Second, cfg.Download.BatchDelay)
	assert.Equal(t, models.QualityBest, cfg.DefaultQuality())
	assert.Contains(t, cfg.Download.SupportedDomains, "youtu.be")
	assert.Equal(t, "data/mediabot.db", cfg.Storage.SQLitePath)
}

func TestLoadFromFile(t *testing.T) {
	path := writeEnv(t, "TELEGRAM_TOKEN=1:x\nMAX_BULK_ITEMS=10\nDEFAULT_QUALITY=480\nBATCH_DELAY=500ms\n")
	t.Cleanup(func() {
		for _, k := range []string{"TELEGRAM_TOKEN", "MAX_BULK_ITEMS", "DEFAULT_QUALITY", "BATCH_DELAY"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "1:x", cfg.Telegram.Token)
	assert.Equal(t, 10, cfg.Limits.MaxBulkItems)
	assert.Equal(t, models.Quality480, cfg.DefaultQuality())
	assert.Equal(t, 500*time.Millisecond, cfg.Download.BatchDelay)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	os.Unsetenv("TELEGRAM_TOKEN")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Limits: Limits{
				MaxFileSizeMB:     2000,
				MaxDeliverySizeMB: 50,
				MaxBulkItems:      50,
				MaxActiveBatches:  3,
			},
			Download: Download{
				DefaultQuality:   "best",
				SupportedDomains: []string{"youtube.com"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero bulk", func(c *Config) { c.Limits.MaxBulkItems = 0 }, true},
		{"delivery above file limit", func(c *Config) { c.Limits.MaxDeliverySizeMB = 3000 }, true},
		{"bad quality", func(c *Config) { c.Download.DefaultQuality = "4k" }, true},
		{"no domains", func(c *Config) { c.Download.SupportedDomains = nil }, true},
		{"zero batches defaults to one", func(c *Config) { c.Limits.MaxActiveBatches = 0 }, false},
		{"webhook without path", func(c *Config) { c.Telegram.WebhookURL = "https://bot.example.org" }, true},
		{"webhook with short path", func(c *Config) {
			c.Telegram.WebhookURL = "https://bot.example.org"
			c.Telegram.WebhookPath = "abc"
		}, true},
		{"webhook path with slash", func(c *Config) {
			c.Telegram.WebhookURL = "https://bot.example.org"
			c.Telegram.WebhookPath = "0123456789/abcdef"
		}, true},
		{"webhook with path", func(c *Config) {
			c.Telegram.WebhookURL = "https://bot.example.org"
			c.Telegram.WebhookPath = "0123456789abcdef"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.GreaterOrEqual(t, cfg.Limits.MaxActiveBatches, 1)
		})
	}
}

func TestWebhookEndpoint(t *testing.T) {
	tg := Telegram{WebhookURL: "https://bot.example.org/", WebhookPath: "0123456789abcdef"}

	assert.Equal(t, "/telegram/webhook/0123456789abcdef", tg.WebhookRoute())
	assert.Equal(t, "https://bot.example.org/telegram/webhook/0123456789abcdef", tg.WebhookEndpoint())
}
