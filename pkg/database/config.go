package database

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/Alijeyrad/mentorbook_backend/config"
)

// ApplicationName is reported in pg_stat_activity.
const ApplicationName = "mentorbook"

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// AutoMigrate applies pending migrations when the HTTP server starts.
	AutoMigrate bool
}

func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            5432,
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func FromCentralConfig(c config.DatabaseConfig) Config {
	d := DefaultConfig()
	lifetime := time.Duration(0)
	if c.Pool.ConnMaxLifetimeMin > 0 {
		lifetime = time.Duration(c.Pool.ConnMaxLifetimeMin) * time.Minute
	}
	return Config{
		Host:            cmp.Or(c.Host, d.Host),
		Port:            cmp.Or(c.Port, d.Port),
		User:            c.User,
		Password:        c.Password,
		DBName:          c.DBName,
		SSLMode:         cmp.Or(c.SSLMode, d.SSLMode),
		MaxOpenConns:    cmp.Or(max(c.Pool.MaxOpenConns, 0), d.MaxOpenConns),
		MaxIdleConns:    cmp.Or(max(c.Pool.MaxIdleConns, 0), d.MaxIdleConns),
		ConnMaxLifetime: cmp.Or(lifetime, d.ConnMaxLifetime),
		AutoMigrate:     c.Migrations.AutoMigrate,
	}
}

// DSN renders a lib/pq keyword/value connection string. Values containing
// spaces or quotes are single-quoted.
func (c Config) DSN() string {
	pairs := [][2]string{
		{"host", c.Host},
		{"port", fmt.Sprint(c.Port)},
		{"user", c.User},
		{"password", c.Password},
		{"dbname", c.DBName},
		{"sslmode", c.SSLMode},
		{"application_name", ApplicationName},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		parts = append(parts, p[0]+"="+quoteValue(p[1]))
	}
	return strings.Join(parts, " ")
}

func quoteValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// NewDSN renders the DSN for a central database section; the casbin adapter
// connects with it.
func NewDSN(c config.DatabaseConfig) string {
	return FromCentralConfig(c).DSN()
}
