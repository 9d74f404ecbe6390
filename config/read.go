package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "MENTORBOOK"
)

var GlobalConf *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.dbname", "mentorbook")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.max", 60)
	v.SetDefault("server.rate_limit.window_seconds", 60)

	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", "mentorbook")
	v.SetDefault("authentication.paseto.audience", "mentorbook-api")
	v.SetDefault("authentication.paseto.access_ttl_minutes", 60)

	v.SetDefault("scheduling.timezone", "UTC")
	v.SetDefault("scheduling.enforce_availability", true)
	v.SetDefault("scheduling.reject_past", true)
	v.SetDefault("scheduling.allow_complete_from_pending", true)
	v.SetDefault("scheduling.default_page_size", 10)
	v.SetDefault("scheduling.max_page_size", 100)
	v.SetDefault("scheduling.query_timeout_seconds", 5)
	v.SetDefault("scheduling.availability_cache_ttl_seconds", 60)

	v.SetDefault("nats.name", "mentorbook")

	v.SetDefault("observability.service_name", "mentorbook")
	v.SetDefault("observability.service_version", "dev")
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output.stdout", true)
}

// ReadConfig loads .env (if present), then config.yaml from configPath, then
// MENTORBOOK_* environment overrides. A missing config file is not an error.
func ReadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetConfigType(ConfigFormat)
	v.AddConfigPath(configPath)

	// e.g. MENTORBOOK_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}
