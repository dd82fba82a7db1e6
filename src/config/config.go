package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultFile is read from the working directory when no file is given.
const DefaultFile = "backup-console.json"

// EnvPrefix prefixes every environment variable, e.g. BACKUP_CONSOLE_REMOTE.
const EnvPrefix = "BACKUP_CONSOLE"

// Config represents the console configuration.
type Config struct {
	Remote          string        `json:"remote" mapstructure:"remote"`
	APIToken        string        `json:"api-token" mapstructure:"api-token"`
	Node            string        `json:"node" mapstructure:"node"`
	IncusSocket     string        `json:"incus-socket" mapstructure:"incus-socket"`
	LogLevel        string        `json:"log-level" mapstructure:"log-level"`
	ListingRetries  int           `json:"listing-retries" mapstructure:"listing-retries"`
	Timeout         time.Duration `json:"timeout" mapstructure:"timeout"`
	Insecure        bool          `json:"insecure" mapstructure:"insecure"`
	AMQPURL         string        `json:"amqp-url" mapstructure:"amqp-url"`
	AMQPExchange    string        `json:"amqp-exchange" mapstructure:"amqp-exchange"`
	MetricsTextfile string        `json:"metrics-textfile" mapstructure:"metrics-textfile"`
}

var requiredFields = []string{
	"remote",
}

// field: default value
var optionalFields = map[string]interface{}{
	"node":             "localhost",
	"log-level":        "WARNING",
	"listing-retries":  2,
	"timeout":          "30s",
	"insecure":         false,
	"amqp-exchange":    "backup-console",
	"api-token":        "",
	"incus-socket":     "",
	"amqp-url":         "",
	"metrics-textfile": "",
}

// Load reads configuration from path (or DefaultFile when it exists) and
// environment variables, then applies overrides (typically set CLI flags).
// Precedence: overrides, environment, file, defaults.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()

	for field, def := range optionalFields {
		v.SetDefault(field, def)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, field := range requiredFields {
		_ = v.BindEnv(field)
	}

	explicit := path != ""
	if !explicit {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if explicit || !errors.As(err, &notFound) {
				return nil, fmt.Errorf("could not read config: %w", err)
			}
		}
	}

	for k, val := range overrides {
		v.Set(k, val)
	}

	for _, field := range requiredFields {
		if strings.TrimSpace(v.GetString(field)) == "" {
			return nil, fmt.Errorf("missing required config field: %s (set --%s or %s_%s)",
				field, field, EnvPrefix, strings.ToUpper(strings.ReplaceAll(field, "-", "_")))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	if cfg.ListingRetries < 0 {
		return nil, fmt.Errorf("listing-retries must not be negative")
	}
	return &cfg, nil
}
