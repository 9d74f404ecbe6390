package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/mentorbook_backend/config"
	"github.com/Alijeyrad/mentorbook_backend/pkg/apperr"
)

var ErrTooManyRequests = apperr.New(apperr.KindTooManyRequests, "RATE_LIMITED", "Too many requests, slow down")

// NewLimiter builds a sliding-window limiter. Counters live in Redis when a
// client is available so every instance shares them.
func NewLimiter(cfg config.RateLimitConfig, rdb *redis.Client) fiber.Handler {
	lc := limiter.Config{
		Max:               cfg.Max,
		Expiration:        time.Duration(cfg.WindowSeconds) * time.Second,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c fiber.Ctx) error {
			return ErrTooManyRequests
		},
	}
	if rdb != nil {
		lc.Storage = fiberredis.NewFromConnection(rdb)
	}
	return limiter.New(lc)
}
