package reqctx

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey int

const (
	keyRequestMeta ctxKey = iota
	keyClaims
)

// RequestMeta is captured once per HTTP request by the request-id middleware.
type RequestMeta struct {
	RequestID   string
	ClientIP    string
	UserAgent   string
	RequestedAt time.Time
}

func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, keyRequestMeta, meta)
}

func RequestMetaFromContext(ctx context.Context) (*RequestMeta, bool) {
	meta, ok := ctx.Value(keyRequestMeta).(*RequestMeta)
	return meta, ok && meta != nil
}

// RequestIDFromContext returns "" outside an HTTP request.
func RequestIDFromContext(ctx context.Context) string {
	if meta, ok := RequestMetaFromContext(ctx); ok {
		return meta.RequestID
	}
	return ""
}

// LogAttrs returns the request id and the acting user, whichever are known,
// for attaching to log records emitted with this context.
func LogAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if id := RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if c := ClaimsFromContext(ctx); c != nil {
		attrs = append(attrs,
			slog.String("actor_id", c.GetUserID().String()),
			slog.String("actor_role", c.GetRole()),
		)
	}
	return attrs
}
