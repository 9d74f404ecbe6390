package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/pkg/apperr"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/mentorbook_backend/pkg/paseto"
	"github.com/Alijeyrad/mentorbook_backend/pkg/reqctx"
)

const LocalsActor = "actor"

var (
	ErrUnauthorized = apperr.Unauthorized("UNAUTHORIZED", "Unauthorized")
	ErrInvalidToken = apperr.Unauthorized("INVALID_TOKEN", "Invalid or expired token")
	ErrSessionEnded = apperr.Unauthorized("SESSION_EXPIRED", "Session is no longer active")
)

// SessionKey is the Redis key whose presence keeps a token session alive.
func SessionKey(sessionID string) string { return "session:" + sessionID }

// AuthRequired validates a Bearer PASETO access token. When rdb is set, a
// token carrying a session id is accepted only while that session exists in
// Redis; requireSession additionally rejects tokens without one.
// On success the acting identity is stored in Locals and on the request context.
func AuthRequired(mgr *pasetotoken.Manager, rdb *redis.Client, requireSession bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ErrUnauthorized
		}

		claims, err := mgr.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return ErrInvalidToken
		}

		// Only access tokens are accepted on protected routes
		if claims.Type != pasetotoken.TokenTypeAccess {
			return ErrInvalidToken
		}

		role, err := authorize.ParseRole(claims.Role)
		if err != nil {
			return ErrInvalidToken
		}

		switch {
		case claims.SessionID != nil && rdb != nil:
			if err := rdb.Get(c.Context(), SessionKey(claims.SessionID.String())).Err(); err != nil {
				return ErrSessionEnded
			}
		case requireSession:
			return ErrSessionEnded
		}

		actor := repo.Actor{ID: claims.UserID, Role: role}
		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.Locals(LocalsActor, actor)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))

		return c.Next()
	}
}

// ActorFromFiber returns the identity set by AuthRequired.
func ActorFromFiber(c fiber.Ctx) (repo.Actor, bool) {
	a, ok := c.Locals(LocalsActor).(repo.Actor)
	return a, ok
}
