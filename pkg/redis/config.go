package redis

import (
	"cmp"
	"time"

	"github.com/Alijeyrad/mentorbook_backend/config"
)

// ClientName is reported to Redis via CLIENT SETNAME.
const ClientName = "mentorbook"

type Config struct {
	Addr     string
	DB       int
	Username string
	Password string

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

// FromCentralConfig converts config.RedisConfig, falling back to
// DefaultConfig for every unset or non-positive field.
func FromCentralConfig(c config.RedisConfig) Config {
	d := DefaultConfig()
	return Config{
		Addr:         cmp.Or(c.Addr, d.Addr),
		DB:           c.DB,
		Username:     c.Username,
		Password:     c.Password,
		PoolSize:     cmp.Or(max(c.PoolSize, 0), d.PoolSize),
		MinIdleConns: cmp.Or(max(c.MinIdleConns, 0), d.MinIdleConns),
		DialTimeout:  cmp.Or(seconds(c.DialTimeoutSeconds), d.DialTimeout),
		ReadTimeout:  cmp.Or(seconds(c.ReadTimeoutSeconds), d.ReadTimeout),
		WriteTimeout: cmp.Or(seconds(c.WriteTimeoutSeconds), d.WriteTimeout),
	}
}
