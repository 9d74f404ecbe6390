package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Database       DatabaseConfig       `mapstructure:"database"`
	CasbinDatabase DatabaseConfig       `mapstructure:"casbin_database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Server         ServerConfig         `mapstructure:"server"`
	Authentication AuthenticationConfig `mapstructure:"authentication"`
	Authorization  AuthorizationConfig  `mapstructure:"authorization"`
	Scheduling     SchedulingConfig     `mapstructure:"scheduling"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Nats           NatsConfig           `mapstructure:"nats"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	// Driver selects the store: postgres (default) or memory.
	Driver     string                  `mapstructure:"driver"`
	Host       string                  `mapstructure:"host"`
	Port       int                     `mapstructure:"port"`
	User       string                  `mapstructure:"user"`
	Password   string                  `mapstructure:"password"`
	DBName     string                  `mapstructure:"dbname"`
	SSLMode    string                  `mapstructure:"sslmode"`
	Pool       DatabasePoolConfig      `mapstructure:"pool"`
	Migrations DatabaseMigrationConfig `mapstructure:"migrations"`

	// FieldKeyHex is a 64-char hex AES-256 key sealing meeting host links.
	FieldKeyHex string `mapstructure:"field_key_hex"`
}

type DatabasePoolConfig struct {
	MaxOpenConns       int `mapstructure:"max_open_conns"`
	MaxIdleConns       int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_minutes"`
}

type DatabaseMigrationConfig struct {
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type RateLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	Max           int  `mapstructure:"max"`
	WindowSeconds int  `mapstructure:"window_seconds"`
}

type ServerConfig struct {
	Port           int             `mapstructure:"port"`
	TimeoutSeconds int             `mapstructure:"timeout_seconds"`
	Environment    string          `mapstructure:"environment"`
	Domain         string          `mapstructure:"domain"`
	CORS           CORSConfig      `mapstructure:"cors"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

// IsProduction reports whether the server runs with production hardening.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposeHeaders    []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

type AuthenticationConfig struct {
	Paseto PasetoConfig `mapstructure:"paseto"`
	// RequireSession rejects tokens whose session id is missing from Redis.
	RequireSession bool `mapstructure:"require_session"`
}

type PasetoConfig struct {
	Mode             string `mapstructure:"mode"`
	LocalKeyHex      string `mapstructure:"local_key_hex"`
	SecretKeyHex     string `mapstructure:"secret_key_hex"`
	PublicKeyHex     string `mapstructure:"public_key_hex"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
}

type AuthorizationConfig struct {
	// PersistPolicies stores casbin policies in casbin_database and syncs
	// them across instances. Off means the built-in policy set in memory.
	PersistPolicies bool `mapstructure:"persist_policies"`
	EnableAudit     bool `mapstructure:"enable_audit"`
	AdminBypass     bool `mapstructure:"admin_bypass"`
}

type SchedulingConfig struct {
	// Timezone is the IANA zone slot times are interpreted in.
	Timezone                    string `mapstructure:"timezone"`
	EnforceAvailability         bool   `mapstructure:"enforce_availability"`
	RejectPast                  bool   `mapstructure:"reject_past"`
	AllowCompleteFromPending    bool   `mapstructure:"allow_complete_from_pending"`
	DefaultPageSize             int    `mapstructure:"default_page_size"`
	MaxPageSize                 int    `mapstructure:"max_page_size"`
	QueryTimeoutSeconds         int    `mapstructure:"query_timeout_seconds"`
	AvailabilityCacheTTLSeconds int    `mapstructure:"availability_cache_ttl_seconds"`
}

type NatsConfig struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
	// Audit subscribes a worker that logs every appointment event.
	Audit bool `mapstructure:"audit"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/app.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100"
	Username string `mapstructure:"username"` // for Grafana Cloud basic auth
	Password string `mapstructure:"password"`
	TenantID string `mapstructure:"tenant_id"`
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("database.driver: unknown driver %q (use postgres|memory)", c.Database.Driver)
	}

	if c.Scheduling.Timezone != "" {
		if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
			return fmt.Errorf("scheduling.timezone: %w", err)
		}
	}
	if c.Scheduling.DefaultPageSize <= 0 {
		return fmt.Errorf("scheduling.default_page_size must be positive")
	}
	if c.Scheduling.MaxPageSize <= 0 {
		return fmt.Errorf("scheduling.max_page_size must be positive")
	}
	if c.Scheduling.DefaultPageSize > c.Scheduling.MaxPageSize {
		return fmt.Errorf("scheduling.default_page_size exceeds max_page_size")
	}

	if k := c.Database.FieldKeyHex; k != "" {
		if b, err := hex.DecodeString(k); err != nil || len(b) != 32 {
			return fmt.Errorf("database.field_key_hex must be 64 hex characters")
		}
	}

	if c.Authorization.PersistPolicies && c.Database.Driver == DriverMemory {
		return fmt.Errorf("authorization.persist_policies requires the postgres driver")
	}
	if c.Authentication.RequireSession && !c.Redis.Enabled {
		return fmt.Errorf("authentication.require_session requires redis")
	}
	return nil
}
