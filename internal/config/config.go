package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"mediabot/internal/models"
)

type Config struct {
	Server   Server
	Telegram Telegram
	Limits   Limits
	Download Download
	Sessions Sessions
	Storage  Storage
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
}

type Server struct {
	Host        string        `env:"HOST" env-default:"localhost"`
	Port        string        `env:"PORT" env-default:"8080"`
	Timeout     time.Duration `env:"TIMEOUT" env-default:"5s"`
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" env-default:"30s"`
}

type Telegram struct {
	Token       string `env:"TELEGRAM_TOKEN" env-required:"true"`
	WebhookURL  string `env:"WEBHOOK_URL"`
	WebhookPath string `env:"WEBHOOK_PATH"`
	PollTimeout int    `env:"POLL_TIMEOUT" env-default:"60"`
}

type Limits struct {
	MaxFileSizeMB       int64 `env:"MAX_FILE_SIZE_MB" env-default:"2000"`
	MaxDeliverySizeMB   int64 `env:"MAX_DELIVERY_SIZE_MB" env-default:"50"`
	MaxBulkItems        int   `env:"MAX_BULK_ITEMS" env-default:"50"`
	MaxActiveBatches    int   `env:"MAX_ACTIVE_BATCHES" env-default:"3"`
	DefaultChannelCount int   `env:"DEFAULT_CHANNEL_COUNT" env-default:"5"`
}

type Download struct {
	Path             string        `env:"DOWNLOAD_PATH" env-default:"downloads"`
	CookieFile       string        `env:"COOKIE_FILE" env-default:"cookies.txt"`
	YtDlpPath        string        `env:"YTDLP_PATH"`
	SocketTimeout    time.Duration `env:"SOCKET_TIMEOUT" env-default:"30s"`
	BatchDelay       time.Duration `env:"BATCH_DELAY" env-default:"2s"`
	DefaultQuality   string        `env:"DEFAULT_QUALITY" env-default:"best"`
	SupportedDomains []string      `env:"SUPPORTED_DOMAINS" env-separator:"," env-default:"youtube.com,youtu.be,facebook.com,fb.watch,instagram.com,instagr.am,tiktok.com,vm.tiktok.com,twitter.com,x.com,reddit.com,redd.it,pinterest.com,pin.it,likee.video,twitch.tv,dailymotion.com,dai.ly,vimeo.com"`
}

type Sessions struct {
	RefTTL      time.Duration `env:"REF_TTL" env-default:"30m"`
	RefCapacity int           `env:"REF_CAPACITY" env-default:"1024"`
}

type Storage struct {
	SQLitePath string `env:"SQLITE_PATH" env-default:"data/mediabot.db"`
}

const (
	DefaultPath = "config/local.env"

	webhookPrefix     = "/telegram/webhook/"
	minWebhookPathLen = 16
)

// Load reads the env file when present and lets real environment variables win.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := godotenv.Load(configPath); err != nil {
			return nil, fmt.Errorf("cannot load env file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot stat env file %s: %w", configPath, err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Limits.MaxBulkItems <= 0 {
		return errors.New("MAX_BULK_ITEMS must be positive")
	}
	if c.Limits.MaxFileSizeMB <= 0 || c.Limits.MaxDeliverySizeMB <= 0 {
		return errors.New("size limits must be positive")
	}
	if c.Limits.MaxDeliverySizeMB > c.Limits.MaxFileSizeMB {
		return fmt.Errorf("delivery limit %dMB exceeds file limit %dMB", c.Limits.MaxDeliverySizeMB, c.Limits.MaxFileSizeMB)
	}
	if c.Limits.MaxActiveBatches <= 0 {
		c.Limits.MaxActiveBatches = 1
	}
	if c.Limits.DefaultChannelCount <= 0 {
		c.Limits.DefaultChannelCount = 5
	}
	if len(c.Download.SupportedDomains) == 0 {
		return errors.New("SUPPORTED_DOMAINS must not be empty")
	}
	if _, err := models.ParseQuality(c.Download.DefaultQuality); err != nil {
		return fmt.Errorf("DEFAULT_QUALITY: %w", err)
	}
	if c.Telegram.WebhookURL != "" {
		if len(c.Telegram.WebhookPath) < minWebhookPathLen || strings.Contains(c.Telegram.WebhookPath, "/") {
			return fmt.Errorf("WEBHOOK_PATH must be a single path segment of at least %d characters", minWebhookPathLen)
		}
	}
	if c.Sessions.RefCapacity <= 0 {
		c.Sessions.RefCapacity = 1024
	}

	return nil
}

func (c *Config) DefaultQuality() models.Quality {
	q, err := models.ParseQuality(c.Download.DefaultQuality)
	if err != nil {
		return models.QualityBest
	}

	return q
}

// WebhookRoute is the local route Telegram posts updates to.
func (t Telegram) WebhookRoute() string {
	return webhookPrefix + t.WebhookPath
}

// WebhookEndpoint is the public URL registered with Telegram.
func (t Telegram) WebhookEndpoint() string {
	return strings.TrimRight(t.WebhookURL, "/") + t.WebhookRoute()
}

func (l Limits) MaxFileSizeBytes() int64 {
	return l.MaxFileSizeMB << 20
}

func (l Limits) MaxDeliverySizeBytes() int64 {
	return l.MaxDeliverySizeMB << 20
}
