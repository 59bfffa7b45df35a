package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "POSTFORME"

// Config holds the CLI settings.
type Config struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Verbose bool          `mapstructure:"verbose"`
}

// New returns a viper instance with defaults, environment bindings and, when path is set or a
// default config file exists, values from that file. A .env file in the working directory is
// loaded into the environment first.
func New(path string) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "https://api.postforme.dev")
	v.SetDefault("timeout", "30s")
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("postforme")
	v.AddConfigPath(".")
	if home, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(home + string(os.PathSeparator) + "postforme")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration using New.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes a populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("invalid %s_TIMEOUT: must be positive", envPrefix)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	return cfg, nil
}

// ValidateForAPI checks configuration needed for calls to the posting API.
func (c *Config) ValidateForAPI() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s_API_KEY is required", envPrefix)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("%s_BASE_URL is required", envPrefix)
	}
	return nil
}
