package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	QueriesFile   string `mapstructure:"queries_file"`
	NotifiersFile string `mapstructure:"notifiers_file"`
	DataDir       string `mapstructure:"data_dir"`
	BBoltPath     string `mapstructure:"bbolt_path"`

	RunIntervalSeconds int64         `mapstructure:"run_interval"`
	RunInterval        time.Duration `mapstructure:"-"`
	RunOnce            bool          `mapstructure:"run_once"`

	NaverBaseURL      string `mapstructure:"naver_base_url"`
	NaverClientID     string `mapstructure:"naver_client_id"`
	NaverClientSecret string `mapstructure:"naver_client_secret"`

	GeminiBaseURL string `mapstructure:"gemini_base_url"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	GeminiModel   string `mapstructure:"gemini_model"`

	WordPressBaseURL     string `mapstructure:"wordpress_base_url"`
	WordPressUsername    string `mapstructure:"wordpress_username"`
	WordPressAppPassword string `mapstructure:"wordpress_app_password"`
	WordPressCategory    int    `mapstructure:"wordpress_category"`

	Concurrency        int           `mapstructure:"concurrency"`
	RetryCeiling       int           `mapstructure:"retry_ceiling"`
	BackoffBaseMs      int64         `mapstructure:"backoff_base_ms"`
	BackoffBase        time.Duration `mapstructure:"-"`
	BackoffMultiplier  float64       `mapstructure:"backoff_multiplier"`
	PageDelayMs        int64         `mapstructure:"page_delay_ms"`
	PageDelay          time.Duration `mapstructure:"-"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "popup-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("queries_file", "./configs/queries.yaml")
	v.SetDefault("notifiers_file", "./configs/notifiers.yaml")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("bbolt_path", "./data/dedup.db")
	v.SetDefault("run_interval", 3600) // seconds
	v.SetDefault("run_once", false)
	v.SetDefault("naver_base_url", "https://openapi.naver.com/v1/search/blog.json")
	v.SetDefault("naver_client_id", "")
	v.SetDefault("naver_client_secret", "")
	v.SetDefault("gemini_base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-pro")
	v.SetDefault("wordpress_base_url", "")
	v.SetDefault("wordpress_username", "")
	v.SetDefault("wordpress_app_password", "")
	v.SetDefault("wordpress_category", 8)
	v.SetDefault("concurrency", 4)
	v.SetDefault("retry_ceiling", 3)
	v.SetDefault("backoff_base_ms", 500)
	v.SetDefault("backoff_multiplier", 2.0)
	v.SetDefault("page_delay_ms", 500)
	v.SetDefault("http_timeout_seconds", 15)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.RunIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid run_interval (must be positive seconds)")
	}
	cfg.RunInterval = time.Duration(cfg.RunIntervalSeconds) * time.Second

	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("invalid concurrency (must be positive)")
	}
	if cfg.RetryCeiling <= 0 {
		return nil, fmt.Errorf("invalid retry_ceiling (must be positive)")
	}
	if cfg.BackoffBaseMs <= 0 {
		return nil, fmt.Errorf("invalid backoff_base_ms (must be positive)")
	}
	if cfg.BackoffMultiplier < 1 {
		return nil, fmt.Errorf("invalid backoff_multiplier (must be >= 1)")
	}
	cfg.BackoffBase = time.Duration(cfg.BackoffBaseMs) * time.Millisecond
	cfg.PageDelay = time.Duration(cfg.PageDelayMs) * time.Millisecond

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.NaverClientID == "" || cfg.NaverClientSecret == "" {
		return nil, fmt.Errorf("naver_client_id and naver_client_secret are required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini_api_key is required")
	}
	if cfg.WordPressBaseURL == "" || cfg.WordPressUsername == "" || cfg.WordPressAppPassword == "" {
		return nil, fmt.Errorf("wordpress_base_url, wordpress_username and wordpress_app_password are required")
	}

	return &cfg, nil
}
