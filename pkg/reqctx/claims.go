package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// AuthClaims is the slice of a verified token the rest of a request may see.
type AuthClaims interface {
	GetUserID() uuid.UUID
	GetRole() string
	GetSessionID() *uuid.UUID
	IsExpired() bool
}

func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, keyClaims, claims)
}

// ClaimsFromContext returns nil for anonymous requests and for claims that
// have expired since they were verified.
func ClaimsFromContext(ctx context.Context) AuthClaims {
	c, _ := ctx.Value(keyClaims).(AuthClaims)
	if c == nil || c.IsExpired() {
		return nil
	}
	return c
}
