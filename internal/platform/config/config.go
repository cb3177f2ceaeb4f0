package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	// Embed tzdata for environments without zoneinfo.
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissingSetting indicates a required setting is absent or invalid.
var ErrMissingSetting = errors.New("missing required setting")

const (
	appEnvLocal         = "local"
	defaultTimezoneName = "UTC"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`
	SourcesFile string `env:"SOURCES_FILE"`

	Database DatabaseConfig
	LLM      LLMConfig
	Fetch    FetchConfig
	Run      RunConfig
	Scholar  ScholarConfig
	Telegram TelegramConfig
}

// Load reads an optional .env file and parses the environment.
// Missing required keys are reported as an error; callers treat it as fatal.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if _, err := cfg.Run.Location(); err != nil {
		return nil, err
	}

	if hasEnv("OPENAI_API_KEY") && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	return cfg, nil
}

// RequireLLM fails when the chat-completion credentials are missing.
// Commands that enrich content call it at startup.
func (c *Config) RequireLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("%w: LLM_API_KEY is required", ErrMissingSetting)
	}

	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("%w: LLM_MAX_TOKENS must be positive", ErrMissingSetting)
	}

	return nil
}

// IsLocal reports whether the process runs in a developer environment.
func (c *Config) IsLocal() bool {
	return c.AppEnv == appEnvLocal
}

// Location resolves RUN_TIMEZONE; the reference day of a run is computed in it.
func (r RunConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(r.Timezone)
	if name == "" {
		name = defaultTimezoneName
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}

	return loc, nil
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}
