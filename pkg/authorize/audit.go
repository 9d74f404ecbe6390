package authorize

import (
	"context"
	"log/slog"
	"time"

	casbin "github.com/casbin/casbin/v2"
)

// AuditedAuthorization logs every decision and policy change made through
// the wrapped IAuthorization. Denials log at warn, grants at debug.
type AuditedAuthorization struct {
	inner IAuthorization
	log   *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	return &AuditedAuthorization{inner: inner, log: orDefault(logger).With("component", "authz")}
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func tripleAttrs(role Role, object Resource, action Action) []slog.Attr {
	return []slog.Attr{
		slog.String("role", role.String()),
		slog.String("resource", string(object)),
		slog.String("action", string(action)),
	}
}

func (a *AuditedAuthorization) Enforce(ctx context.Context, role Role, object Resource, action Action) (bool, error) {
	began := time.Now()
	allowed, err := a.inner.Enforce(ctx, role, object, action)

	attrs := append(tripleAttrs(role, object, action),
		slog.Bool("allowed", allowed),
		slog.Duration("took", time.Since(began)),
	)
	level := slog.LevelDebug
	switch {
	case err != nil:
		level = slog.LevelError
		attrs = append(attrs, slog.Any("error", err))
	case !allowed:
		level = slog.LevelWarn
	}
	a.log.LogAttrs(ctx, level, "authz decision", attrs...)

	return allowed, err
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, role Role, object Resource, action Action) error {
	allowed, err := a.Enforce(ctx, role, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

func (a *AuditedAuthorization) AddPermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error) {
	changed, err := a.inner.AddPermission(ctx, role, object, action, effect)
	a.policyChanged(ctx, "add", role, object, action, effect, changed, err)
	return changed, err
}

func (a *AuditedAuthorization) RemovePermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error) {
	changed, err := a.inner.RemovePermission(ctx, role, object, action, effect)
	a.policyChanged(ctx, "remove", role, object, action, effect, changed, err)
	return changed, err
}

func (a *AuditedAuthorization) Permissions(ctx context.Context, role Role) ([]PermissionPolicy, error) {
	return a.inner.Permissions(ctx, role)
}

func (a *AuditedAuthorization) Raw() *casbin.DistributedEnforcer { return a.inner.Raw() }

func (a *AuditedAuthorization) policyChanged(ctx context.Context, op string, role Role, object Resource, action Action, effect PolicyEffect, changed bool, err error) {
	attrs := append(tripleAttrs(role, object, action),
		slog.String("op", op),
		slog.String("effect", string(effect)),
		slog.Bool("changed", changed),
	)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.Any("error", err))
	}
	a.log.LogAttrs(ctx, level, "authz policy change", attrs...)
}
