package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/spf13/viper"
)

// Config is the process-wide configuration, loaded once at startup
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Ollama     OllamaConfig     `mapstructure:"ollama"`
	Store      StoreConfig      `mapstructure:"store"`
	Demand     DemandConfig     `mapstructure:"demand"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	UploadsDir  string `mapstructure:"uploads_dir"`
	StaticDir   string `mapstructure:"static_dir"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
}

// AssessmentConfig selects the vision provider and its model fallback list
type AssessmentConfig struct {
	Provider string        `mapstructure:"provider"`
	Models   []string      `mapstructure:"models"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	URL string `mapstructure:"url"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// DemandConfig overrides the curated demand lists; empty keeps the defaults
type DemandConfig struct {
	Titles []string `mapstructure:"titles"`
	Genres []string `mapstructure:"genres"`
}

// default model lists per provider
var defaultModels = map[string][]string{
	"gemini": {"gemini-2.5-flash", "gemini-2.0-flash"},
	"openai": {"gpt-4o"},
	"ollama": {"mistral-small3.2:24b"},
}

// Load reads configuration from defaults, an optional config file and the
// environment. An empty path looks for bookswap.yaml in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bookswap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("BOOKSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	models := make([]string, 0, len(cfg.Assessment.Models))
	for _, m := range cfg.Assessment.Models {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		models = defaultModels[cfg.Assessment.Provider]
	}
	cfg.Assessment.Models = models

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8888")
	v.SetDefault("server.uploads_dir", "uploads")
	v.SetDefault("server.static_dir", "static")
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("assessment.provider", "gemini")
	v.SetDefault("assessment.models", []string{})
	v.SetDefault("assessment.timeout", 60*time.Second)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.base_delay", time.Second)
	v.SetDefault("retry.max_delay", 10*time.Second)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", "data/bookswap.db")
	v.SetDefault("demand.titles", []string{})
	v.SetDefault("demand.genres", []string{})
}

// bindLegacyEnv keeps the provider env names used by the cataloging tools working
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("gemini.api_key", "BOOKSWAP_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("openai.api_key", "BOOKSWAP_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("ollama.url", "BOOKSWAP_OLLAMA_URL", "OLLAMA_URL", "OLLAMA_HOST")
	_ = v.BindEnv("assessment.provider", "BOOKSWAP_ASSESSMENT_PROVIDER", "CATALOGING_PROVIDER")
	_ = v.BindEnv("assessment.models", "BOOKSWAP_ASSESSMENT_MODELS", "GEMINI_MODELS")
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	var errs []error

	switch c.Assessment.Provider {
	case "gemini", "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("unsupported provider: %s. Must be 'gemini', 'openai', or 'ollama'", c.Assessment.Provider))
	}

	if len(c.Assessment.Models) == 0 {
		errs = append(errs, fmt.Errorf("at least one assessment model is required"))
	}

	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported store driver: %s. Must be 'memory' or 'sqlite'", c.Store.Driver))
	}

	if c.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.max_retries must not be negative"))
	}

	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be at least 1"))
	}

	return errors.Join(errs...)
}

// NewEngine builds a credit engine using the configured demand lists
func (c *Config) NewEngine() *credit.Engine {
	return credit.NewEngine(
		credit.WithDemandSource(credit.NewCuratedDemand(c.Demand.Titles, c.Demand.Genres)),
	)
}
