// Package redis builds the shared go-redis client used for the availability
// read cache, token session checks and rate-limit counters.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/mentorbook_backend/config"
)

var ErrNoAddr = errors.New("redis addr is empty")

func NewRedisFromCentral(cfg config.RedisConfig) (*goredis.Client, error) {
	return NewRedis(context.Background(), FromCentralConfig(cfg))
}

// Options maps Config onto go-redis options.
func (c Config) Options() *goredis.Options {
	return &goredis.Options{
		Addr:         c.Addr,
		ClientName:   ClientName,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}

// NewRedis connects and pings once, bounded by the dial timeout.
func NewRedis(ctx context.Context, cfg Config) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, ErrNoAddr
	}

	rdb := goredis.NewClient(cfg.Options())

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return rdb, nil
}
