package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/pkg/reqctx"
)

const HeaderRequestID = "X-Request-Id"

const maxRequestIDLen = 128

// RequestID echoes a caller supplied X-Request-Id or mints one, and records
// it together with client details on the request context.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		rid := c.Get(HeaderRequestID)
		if !usableRequestID(rid) {
			rid = uuid.Must(uuid.NewV7()).String()
		}
		c.Set(HeaderRequestID, rid)

		c.SetContext(reqctx.WithRequestMeta(c.Context(), &reqctx.RequestMeta{
			RequestID:   rid,
			ClientIP:    c.IP(),
			UserAgent:   c.Get(fiber.HeaderUserAgent),
			RequestedAt: time.Now(),
		}))
		return c.Next()
	}
}

// usableRequestID accepts short printable ASCII ids so they are safe to log.
func usableRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
