package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EngineChrome = "chrome"
	EngineStatic = "static"

	PageErrorAbort = "abort"
	PageErrorSkip  = "skip"

	StateMemory = "memory"
	StateRedis  = "redis"
)

var (
	ErrMissingURL = errors.New("a start url is required")
	ErrMissingOut = errors.New("an output directory is required")
)

// Config holds the application configuration.
type Config struct {
	URL      string `mapstructure:"url"`
	OnlyHost string `mapstructure:"only_host"`
	Out      string `mapstructure:"out"`

	Engine          string        `mapstructure:"engine"`
	Headless        bool          `mapstructure:"headless"`
	OnPageError     string        `mapstructure:"on_page_error"`
	MaxPages        int           `mapstructure:"max_pages"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`

	State         string `mapstructure:"state"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`

	MetricsAddr    string `mapstructure:"metrics_addr"`
	ServerPort     string `mapstructure:"server_port"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
	LogLevel       string `mapstructure:"log_level"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	// Keys without a meaningful default are still registered so that
	// AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("url", "")
	v.SetDefault("only_host", "")
	v.SetDefault("out", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("engine", EngineChrome)
	v.SetDefault("headless", true)
	v.SetDefault("on_page_error", PageErrorAbort)
	v.SetDefault("max_pages", 0)
	v.SetDefault("page_load_timeout", 60*time.Second)
	v.SetDefault("fetch_timeout", 30*time.Second)
	v.SetDefault("user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("state", StateMemory)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("server_port", "8080")
	v.SetDefault("max_concurrency", 2)
	v.SetDefault("log_level", "info")
}

// BindFlags binds every flag in fs to the config key of the same name with
// dashes replaced by underscores (--only-host -> only_host).
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Name == "config" {
			return
		}
		bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return bindErr
}

// Load reads configuration from an optional file, MIRROR_* environment
// variables and any flags already bound to v.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("MIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown enum values and negative limits.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineChrome, EngineStatic:
	default:
		return fmt.Errorf("unknown engine %q (want %s or %s)", c.Engine, EngineChrome, EngineStatic)
	}
	switch c.OnPageError {
	case PageErrorAbort, PageErrorSkip:
	default:
		return fmt.Errorf("unknown page error policy %q (want %s or %s)", c.OnPageError, PageErrorAbort, PageErrorSkip)
	}
	switch c.State {
	case StateMemory, StateRedis:
	default:
		return fmt.Errorf("unknown state backend %q (want %s or %s)", c.State, StateMemory, StateRedis)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages must not be negative, got %d", c.MaxPages)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be at least 1, got %d", c.MaxConcurrency)
	}
	return nil
}

// ValidateRun checks the settings needed by a one-shot mirror run.
func (c *Config) ValidateRun() error {
	if strings.TrimSpace(c.URL) == "" {
		return ErrMissingURL
	}
	if strings.TrimSpace(c.Out) == "" {
		return ErrMissingOut
	}
	return nil
}
