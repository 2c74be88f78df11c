package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageDriverFile   = "file"
	StorageDriverSQLite = "sqlite"

	SummaryProviderGemini = "gemini"
	SummaryProviderOpenAI = "openai"
)

type Config struct {
	Port    string `env:"PORT" env-default:"8080"`
	BaseURL string `env:"BASE_URL"`

	DataDir       string `env:"DATA_DIR" env-default:"data"`
	StorageDriver string `env:"STORAGE_DRIVER" env-default:"file"`
	StorageSlot   string `env:"STORAGE_SLOT" env-default:"earsip_lpse_ntb"`

	MaxUploadMB int64 `env:"MAX_UPLOAD_MB" env-default:"10"`
	PageSize    int   `env:"PAGE_SIZE" env-default:"5"`

	SummaryProvider string        `env:"SUMMARY_PROVIDER" env-default:"gemini"`
	GeminiAPIKey    string        `env:"API_KEY"`
	GeminiAPIKeyAlt string        `env:"GEMINI_API_KEY"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	SummaryModel    string        `env:"SUMMARY_MODEL"`
	SummaryTimeout  time.Duration `env:"SUMMARY_TIMEOUT" env-default:"5s"`

	SessionSecret string        `env:"SESSION_SECRET" env-default:"change-me"`
	SessionTTL    time.Duration `env:"SESSION_TTL" env-default:"8h"`
	ShareSecret   string        `env:"SHARE_SECRET" env-default:"change-me"`
	ShareTTL      time.Duration `env:"SHARE_TTL" env-default:"24h"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"console"`
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%s", cfg.Port)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = absDataDir

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverFile, StorageDriverSQLite:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.SummaryProvider {
	case SummaryProviderGemini, SummaryProviderOpenAI:
	default:
		return fmt.Errorf("unknown SUMMARY_PROVIDER %q", c.SummaryProvider)
	}
	if strings.TrimSpace(c.StorageSlot) == "" {
		return fmt.Errorf("STORAGE_SLOT must not be empty")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.SummaryTimeout <= 0 {
		return fmt.Errorf("SUMMARY_TIMEOUT must be positive")
	}
	return nil
}

// MaxUploadBytes is the attachment ceiling in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

// SummaryAPIKey returns the credential of the selected summary provider.
func (c Config) SummaryAPIKey() string {
	if c.SummaryProvider == SummaryProviderOpenAI {
		return c.OpenAIAPIKey
	}
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.GeminiAPIKeyAlt
}

// Model returns the configured summary model or the provider default.
func (c Config) Model() string {
	if c.SummaryModel != "" {
		return c.SummaryModel
	}
	if c.SummaryProvider == SummaryProviderOpenAI {
		return "gpt-4o-mini"
	}
	return "gemini-2.0-flash"
}

// SlotPath is where the file driver keeps the collection.
func (c Config) SlotPath() string {
	return filepath.Join(c.DataDir, c.StorageSlot+".json")
}

// DatabasePath is where the sqlite driver keeps the collection.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "earsip.db")
}
