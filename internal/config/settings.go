package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/mtr-normalizer/internal/common"
)

// EnvPrefix prefixes every environment override, e.g. MTR_LLM_MODEL.
const EnvPrefix = "MTR"

// Settings is the resolved application configuration.
type Settings struct {
	Processing ProcessingSettings
	LLM        LLMSettings
	WebSearch  WebSearchSettings
	Database   DatabaseSettings
	Cache      CacheSettings
	Output     OutputSettings
}

// ProcessingSettings controls the pipeline.
type ProcessingSettings struct {
	BatchSize   int
	Workers     int
	MaxRetries  int
	CallTimeout time.Duration
	RetryDelay  time.Duration
}

// LLMSettings selects and tunes the language model provider.
type LLMSettings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	RateLimit   int
}

// WebSearchSettings controls web research and registry scraping.
type WebSearchSettings struct {
	SearchURL   string
	RegistryURL string
	Timeout     time.Duration
	RateLimit   time.Duration
}

// DatabaseSettings locates the run history database.
type DatabaseSettings struct {
	Path string
}

// CacheSettings bounds the in-memory caches.
type CacheSettings struct {
	TTL        time.Duration
	MaxEntries int
}

// OutputSettings sets where results are written.
type OutputSettings struct {
	Dir string
}

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "mtr"), nil
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("processing.batch_size", 10)
	v.SetDefault("processing.workers", 4)
	v.SetDefault("processing.max_retries", 3)
	v.SetDefault("processing.call_timeout", 30*time.Second)
	v.SetDefault("processing.retry_delay", time.Second)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.rate_limit", 60)

	v.SetDefault("websearch.timeout", 10*time.Second)
	v.SetDefault("websearch.rate_limit", 500*time.Millisecond)

	v.SetDefault("database.path", "$HOME/.local/share/mtr/mtr.db")

	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("cache.max_entries", 10000)

	v.SetDefault("output.dir", "output")
}

// Init points v at the config file (or the default search path), enables
// MTR_ environment overrides and reads the file if one exists.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		v.AddConfigPath(dir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load resolves and validates settings from v.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Processing: ProcessingSettings{
			BatchSize:   v.GetInt("processing.batch_size"),
			Workers:     v.GetInt("processing.workers"),
			MaxRetries:  v.GetInt("processing.max_retries"),
			CallTimeout: v.GetDuration("processing.call_timeout"),
			RetryDelay:  v.GetDuration("processing.retry_delay"),
		},
		LLM: LLMSettings{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			Timeout:     v.GetDuration("llm.timeout"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			RateLimit:   v.GetInt("llm.rate_limit"),
		},
		WebSearch: WebSearchSettings{
			SearchURL:   v.GetString("websearch.search_url"),
			RegistryURL: v.GetString("websearch.registry_url"),
			Timeout:     v.GetDuration("websearch.timeout"),
			RateLimit:   v.GetDuration("websearch.rate_limit"),
		},
		Database: DatabaseSettings{Path: ExpandPath(v.GetString("database.path"))},
		Cache: CacheSettings{
			TTL:        v.GetDuration("cache.ttl"),
			MaxEntries: v.GetInt("cache.max_entries"),
		},
		Output: OutputSettings{Dir: ExpandPath(v.GetString("output.dir"))},
	}

	if s.LLM.APIKey == "" {
		s.LLM.APIKey = os.Getenv(ProviderKeyEnv(s.LLM.Provider))
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ProviderKeyEnv names the conventional API key variable of a provider.
func ProviderKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// Validate checks value ranges. A missing API key is not an error here;
// commands that need the model report it.
func (s *Settings) Validate() error {
	switch {
	case s.Processing.BatchSize <= 0:
		return fmt.Errorf("%w: processing.batch_size must be positive", common.ErrInvalidConfig)
	case s.Processing.Workers <= 0:
		return fmt.Errorf("%w: processing.workers must be positive", common.ErrInvalidConfig)
	case s.Processing.MaxRetries <= 0:
		return fmt.Errorf("%w: processing.max_retries must be positive", common.ErrInvalidConfig)
	case s.Processing.CallTimeout <= 0:
		return fmt.Errorf("%w: processing.call_timeout must be positive", common.ErrInvalidConfig)
	case s.LLM.Temperature < 0 || s.LLM.Temperature > 2:
		return fmt.Errorf("%w: llm.temperature must be between 0 and 2", common.ErrInvalidConfig)
	}

	switch s.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, s.LLM.Provider)
	}
	return nil
}

// HasAPIKey reports whether the configured provider can be called.
func (s *Settings) HasAPIKey() bool {
	return s.LLM.APIKey != ""
}
