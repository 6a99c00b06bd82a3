// Package config loads the bookflow server configuration using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/bookflow/internal/logging"
	"github.com/aretw0/bookflow/pkg/adapters/memory"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// ErrConfigExists is returned by WriteDefault when the target file exists.
var ErrConfigExists = errors.New("config file already exists")

// Config holds all configuration values of the bookflow server.
type Config struct {
	Tenant    string `mapstructure:"tenant"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Listen    string `mapstructure:"listen"`

	// FormSettings keeps the host application's "1"/"0" flags, see Settings.
	FormSettings map[string]any `mapstructure:"form_settings"`

	AreaCheck    AreaCheckConfig           `mapstructure:"area_check"`
	Services     []domain.Service          `mapstructure:"services"`
	Availability memory.AvailabilityConfig `mapstructure:"availability"`
	Store        StoreConfig               `mapstructure:"store"`
	NATS         NATSConfig                `mapstructure:"nats"`
	Metrics      MetricsConfig             `mapstructure:"metrics"`
}

// AreaCheckConfig configures the postal code verification.
type AreaCheckConfig struct {
	Debounce       time.Duration `mapstructure:"debounce"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PostalPattern  string        `mapstructure:"postal_pattern"`
	Areas          []memory.Area `mapstructure:"areas"`
}

// StoreConfig selects and secures the session store.
type StoreConfig struct {
	Driver        string        `mapstructure:"driver"`
	Redis         RedisConfig   `mapstructure:"redis"`
	Dir           string        `mapstructure:"dir"`
	TTL           time.Duration `mapstructure:"ttl"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
	EncryptionKey string        `mapstructure:"encryption_key"`
	PIIMask       []string      `mapstructure:"pii_mask"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig configures booking event publication.
// Events are disabled when neither URL nor Embedded is set.
type NATSConfig struct {
	URL      string `mapstructure:"url"`
	Embedded bool   `mapstructure:"embedded"`
	DataDir  string `mapstructure:"data_dir"`
}

// Enabled reports whether booking events are published.
func (c NATSConfig) Enabled() bool {
	return c.URL != "" || c.Embedded
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// ProjectPath is the config file looked up in the working directory.
const ProjectPath = "bookflow.yaml"

// Load loads configuration with precedence ENV vars > config file > defaults.
// An empty path uses ProjectPath when it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("BOOKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	case fileExists(ProjectPath):
		v.SetConfigFile(ProjectPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", ProjectPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Settings decodes the form settings into domain.Settings.
// Values are weakly typed, so "1", "0", "true" and false all work.
func (c *Config) Settings() (domain.Settings, error) {
	var s domain.Settings
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &s,
	})
	if err != nil {
		return s, err
	}
	if err := dec.Decode(c.FormSettings); err != nil {
		return s, fmt.Errorf("decoding form_settings: %w", err)
	}
	return s, nil
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	if _, err := c.Settings(); err != nil {
		return err
	}
	if len(c.Services) == 0 {
		return errors.New("at least one service is required")
	}
	switch c.Store.Driver {
	case DriverMemory, DriverFile:
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required by the redis driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.NATS.Embedded && c.NATS.URL != "" {
		return errors.New("nats.url and nats.embedded are mutually exclusive")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
