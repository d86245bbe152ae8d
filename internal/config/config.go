package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Completion CompletionConfig `yaml:"completion" mapstructure:"completion"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Prospect   ProspectConfig   `yaml:"prospect" mapstructure:"prospect"`
	SMTP       SMTPConfig       `yaml:"smtp" mapstructure:"smtp"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CompletionConfig holds text-completion service settings.
type CompletionConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	TopP        float64 `yaml:"top_p" mapstructure:"top_p"`
}

// SearchConfig holds web-search provider settings.
type SearchConfig struct {
	Key             string `yaml:"key" mapstructure:"key"`
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	ResultsPerQuery int    `yaml:"results_per_query" mapstructure:"results_per_query"`
}

// FetchConfig configures page fetching.
type FetchConfig struct {
	TimeoutSecs   int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxContentLen int `yaml:"max_content_len" mapstructure:"max_content_len"`
}

// ProspectConfig configures the prospecting run itself.
type ProspectConfig struct {
	MaxLeadsPerRun        int     `yaml:"max_leads_per_run" mapstructure:"max_leads_per_run"`
	IntervalMinutes       int     `yaml:"interval_minutes" mapstructure:"interval_minutes"`
	RequestSpacingSecs    float64 `yaml:"request_spacing_secs" mapstructure:"request_spacing_secs"`
	MaxConcurrentAccounts int     `yaml:"max_concurrent_accounts" mapstructure:"max_concurrent_accounts"`
}

// SMTPConfig holds outbound email settings for lead notifications.
type SMTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	From     string `yaml:"from" mapstructure:"from"`
	Password string `yaml:"password" mapstructure:"password"`
}

// ServerConfig configures the ops HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SALESBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "salesbot.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("completion.model", "claude-haiku-4-5-20251001")
	v.SetDefault("completion.max_tokens", 1024)
	v.SetDefault("completion.temperature", 1.0)
	v.SetDefault("completion.top_p", 1.0)
	v.SetDefault("search.base_url", "https://s.jina.ai")
	v.SetDefault("search.results_per_query", 10)
	v.SetDefault("fetch.timeout_secs", 15)
	v.SetDefault("fetch.max_content_len", 2000)
	v.SetDefault("prospect.max_leads_per_run", 10)
	v.SetDefault("prospect.interval_minutes", 1440)
	v.SetDefault("prospect.request_spacing_secs", 2)
	v.SetDefault("prospect.max_concurrent_accounts", 4)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
