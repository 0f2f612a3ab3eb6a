// Package config provides environment configuration for the API server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// NLU provider names.
const (
	NLUProviderRasa      = "rasa"
	NLUProviderOpenAI    = "openai"
	NLUProviderAnthropic = "anthropic"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string        `env:"PORT" envDefault:"8080"`
	ServerReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	ServerWriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	FrontendOrigin     string        `env:"FRONTEND_ORIGIN" envDefault:"*"`

	// Database settings
	DatabaseURL       string        `env:"DATABASE_URL" envDefault:"sqlite://database.db"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBLogLevel        string        `env:"DB_LOG_LEVEL" envDefault:"warn"`

	// NATS settings; an empty URL disables the turn audit stream
	NATSURL      string `env:"NATS_URL"`
	NATSCAFile   string `env:"NATS_CA_FILE"`
	NATSCertFile string `env:"NATS_CERT_FILE"`
	NATSKeyFile  string `env:"NATS_KEY_FILE"`
	NATSToken    string `env:"NATS_TOKEN"`

	// NLU settings
	NLUProvider     string        `env:"NLU_PROVIDER" envDefault:"rasa"`
	RasaURL         string        `env:"RASA_URL" envDefault:"http://localhost:5005"`
	NLUTimeout      time.Duration `env:"NLU_TIMEOUT" envDefault:"5s"`
	NLUModel        string        `env:"NLU_MODEL"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`

	// JWT settings
	JWTSecret             string        `env:"JWT_SECRET" envDefault:"development-secret-change-in-production"`
	JWTExpiration         time.Duration `env:"JWT_EXPIRATION" envDefault:"12h"`
	RequireSignedIdentity bool          `env:"REQUIRE_SIGNED_IDENTITY" envDefault:"false"`

	// Rate limiting
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"60"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Tracing
	TracingEndpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingEnabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
}

// Load reads configuration from the environment, after applying a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch strings.ToLower(c.NLUProvider) {
	case NLUProviderRasa:
		if c.RasaURL == "" {
			return errors.New("RASA_URL is required when NLU_PROVIDER=rasa")
		}
	case NLUProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when NLU_PROVIDER=openai")
		}
	case NLUProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return errors.New("ANTHROPIC_API_KEY is required when NLU_PROVIDER=anthropic")
		}
	default:
		return fmt.Errorf("unknown NLU_PROVIDER %q", c.NLUProvider)
	}
	if c.NLUTimeout <= 0 {
		return errors.New("NLU_TIMEOUT must be positive")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET cannot be empty")
	}
	return nil
}

// AllowedOrigins splits FRONTEND_ORIGIN on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.FrontendOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
