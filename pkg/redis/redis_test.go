package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alijeyrad/mentorbook_backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	got := FromCentralConfig(config.RedisConfig{
		Addr:               "cache:6380",
		DB:                 2,
		PoolSize:           -1,
		ReadTimeoutSeconds: 7,
	})

	if got.Addr != "cache:6380" || got.DB != 2 {
		t.Errorf("addr/db not carried over: %+v", got)
	}
	if got.PoolSize != 10 || got.MinIdleConns != 2 {
		t.Errorf("pool defaults not applied: %+v", got)
	}
	if got.ReadTimeout != 7*time.Second || got.DialTimeout != 5*time.Second {
		t.Errorf("timeouts = read %v dial %v", got.ReadTimeout, got.DialTimeout)
	}

	opts := got.Options()
	if opts.ClientName != ClientName || opts.PoolSize != 10 {
		t.Errorf("unexpected options %+v", opts)
	}

	if FromCentralConfig(config.RedisConfig{}).Addr != "localhost:6379" {
		t.Error("expected default addr")
	}
}

func TestNewRedisRequiresAddr(t *testing.T) {
	if _, err := NewRedis(context.Background(), Config{}); !errors.Is(err, ErrNoAddr) {
		t.Errorf("got %v, want ErrNoAddr", err)
	}
}
