package app

import (
	"errors"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	BackendURL     string        `envconfig:"BACKEND_URL" default:"http://localhost:8000"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	WorkspaceIdleTTL time.Duration `envconfig:"WORKSPACE_IDLE_TTL" default:"30m"`
	LoginRateLimit   int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`

	SMTPHost     string `envconfig:"SMTP_HOST" default:"127.0.0.1"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"no-reply@binaragam.com"`
	ContactInbox string `envconfig:"CONTACT_INBOX" default:"hello@binaragam.com"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR"`
}

// LoadConfig reads configuration from an optional .env file and then from
// environment variables. Variables already set in the environment win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if u, err := url.Parse(cfg.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("backend url must be absolute")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
