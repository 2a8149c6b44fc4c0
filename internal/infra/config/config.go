package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	OutDir  string `mapstructure:"out_dir" yaml:"out_dir"`
	Workers int    `mapstructure:"workers" yaml:"workers"`

	// History is the path of the sqlite database recording download
	// outcomes. Empty disables the history store.
	History string `mapstructure:"history" yaml:"history"`

	// Listen is the address of the live stats endpoint. Empty disables it.
	Listen string `mapstructure:"listen" yaml:"listen"`

	HTTP HTTPConfig `mapstructure:"http" yaml:"http"`
	Log  LogConfig  `mapstructure:"log" yaml:"log"`
}

type HTTPConfig struct {
	TimeoutSeconds      int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxIdleConnsPerHost int `mapstructure:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host"`
}

type LogConfig struct {
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// Load builds the configuration from defaults, an optional YAML file and
// IMGRAB_* environment variables, in increasing precedence. An empty path
// skips the file entirely.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set Defaults
	v.SetDefault("out_dir", ".")
	v.SetDefault("workers", 10)
	v.SetDefault("history", "")
	v.SetDefault("listen", "")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_idle_conns_per_host", 100)
	v.SetDefault("log.verbose", false)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix("IMGRAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	if c.OutDir == "" {
		c.OutDir = "."
	}
	if c.Workers <= 0 {
		c.Workers = 10
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = 30
	}
	if c.HTTP.MaxIdleConnsPerHost <= 0 {
		c.HTTP.MaxIdleConnsPerHost = 100
	}
}
