package pasetotoken

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/mentorbook_backend/config"
)

// CtxKeyClaims is the fiber Locals key the auth middleware stores *Claims under.
const CtxKeyClaims = "auth.claims"

func ClaimsFromFiber(c fiber.Ctx) (*Claims, bool) {
	cl, ok := c.Locals(CtxKeyClaims).(*Claims)
	return cl, ok && cl != nil
}

func keyStrings(p config.PasetoConfig) KeyStrings {
	return KeyStrings{
		Mode:         Mode(p.Mode),
		SymmetricHex: p.LocalKeyHex,
		SecretHex:    p.SecretKeyHex,
		PublicHex:    p.PublicKeyHex,
	}
}

func NewPasetoManager(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto
	keys, err := LoadKeys(keyStrings(p))
	if err != nil {
		return nil, err
	}
	return New(Config{
		Mode:      keys.Mode,
		Issuer:    p.Issuer,
		Audience:  p.Audience,
		AccessTTL: time.Duration(p.AccessTTLMinutes) * time.Minute,
	}, keys)
}
