package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-pro"`
	HTTPPort     string `env:"HTTP_PORT" envDefault:"8000"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	StoreBackend        string        `env:"STORE_BACKEND" envDefault:"mongo"`
	StoreConnectTimeout time.Duration `env:"STORE_CONNECT_TIMEOUT" envDefault:"5s"`
	MongoURI            string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase       string        `env:"MONGO_DATABASE" envDefault:"agent_db"`
	MessagesCollection  string        `env:"MONGO_MESSAGES_COLLECTION" envDefault:"market_research"`
	TrendsCollection    string        `env:"MONGO_TRENDS_COLLECTION" envDefault:"Google_trend"`
	SQLitePath          string        `env:"SQLITE_PATH" envDefault:"market_research.db"`

	ScrapeURL         string        `env:"SCRAPE_URL" envDefault:"https://trends.google.com/trending?geo=IN"`
	ScrapeInterval    time.Duration `env:"SCRAPE_INTERVAL" envDefault:"1m"`
	RetentionInterval time.Duration `env:"RETENTION_INTERVAL" envDefault:"10m"`
	RetentionMaxAge   time.Duration `env:"RETENTION_MAX_AGE" envDefault:"10m"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrMissingAPIKey is returned by RequireGemini when GEMINI_API_KEY is unset.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY must be set to serve chat requests")

// RequireGemini reports whether the settings needed by the chat server are
// present. A one-off scrape does not call the model and skips this check.
func (c *Config) RequireGemini() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMongo, BackendSQLite:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q (want %q or %q)", c.StoreBackend, BackendMongo, BackendSQLite)
	}

	durations := map[string]time.Duration{
		"STORE_CONNECT_TIMEOUT": c.StoreConnectTimeout,
		"SCRAPE_INTERVAL":       c.ScrapeInterval,
		"RETENTION_INTERVAL":    c.RetentionInterval,
		"RETENTION_MAX_AGE":     c.RetentionMaxAge,
	}
	var errs []error
	for name, d := range durations {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.ScrapeURL == "" {
		errs = append(errs, errors.New("SCRAPE_URL must not be empty"))
	}
	return errors.Join(errs...)
}
