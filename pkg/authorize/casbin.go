package authorize

import (
	"context"
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidArgs = errors.New("invalid authorization arguments")
)

// IAuthorization is the only thing services/middleware should depend on.
type IAuthorization interface {
	// Enforce answers: "may a caller holding role perform action on object?"
	Enforce(ctx context.Context, role Role, object Resource, action Action) (bool, error)

	// MustEnforce returns ErrForbidden if not allowed.
	MustEnforce(ctx context.Context, role Role, object Resource, action Action) error

	// Permission management (policies): p, role, object, action, eft
	AddPermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error)
	RemovePermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error)
	Permissions(ctx context.Context, role Role) ([]PermissionPolicy, error)

	Raw() *casbin.DistributedEnforcer
}

// Authorization is a thin typed wrapper around casbin.DistributedEnforcer.
type Authorization struct {
	enforcer  *casbin.DistributedEnforcer
	adminRole Role
}

// NewAuthorization wraps an already-configured enforcer. When adminBypass is
// set, RoleAdmin is allowed everything without consulting the policy.
func NewAuthorization(e *casbin.DistributedEnforcer, adminBypass bool) (IAuthorization, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: enforcer is nil", ErrInvalidArgs)
	}

	a := &Authorization{enforcer: e}
	if adminBypass {
		a.adminRole = RoleAdmin
	}
	return a, nil
}

func (a *Authorization) Raw() *casbin.DistributedEnforcer { return a.enforcer }

func (a *Authorization) Enforce(ctx context.Context, role Role, object Resource, action Action) (bool, error) {
	_ = ctx

	if err := validateTriple(role, object, action); err != nil {
		return false, err
	}

	if a.adminRole != "" && role == a.adminRole {
		return true, nil
	}

	return a.enforcer.Enforce(string(role), string(object), string(action))
}

func (a *Authorization) MustEnforce(ctx context.Context, role Role, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// ---- Policies ----

func (a *Authorization) AddPermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error) {
	_ = ctx
	if err := validatePolicy(role, object, action, effect); err != nil {
		return false, err
	}
	return a.enforcer.AddPolicy(string(role), string(object), string(action), string(effect))
}

func (a *Authorization) RemovePermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error) {
	_ = ctx
	if err := validatePolicy(role, object, action, effect); err != nil {
		return false, err
	}
	return a.enforcer.RemovePolicy(string(role), string(object), string(action), string(effect))
}

func (a *Authorization) Permissions(ctx context.Context, role Role) ([]PermissionPolicy, error) {
	_ = ctx
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, role)
	}
	rows := a.enforcer.GetFilteredPolicy(0, string(role))
	out := make([]PermissionPolicy, 0, len(rows))
	for _, r := range rows {
		if len(r) < 4 {
			continue
		}
		out = append(out, PermissionPolicy{
			Subject: Role(r[0]),
			Object:  Resource(r[1]),
			Action:  Action(r[2]),
			Effect:  PolicyEffect(r[3]),
		})
	}
	return out, nil
}

func validateTriple(role Role, object Resource, action Action) error {
	if role == "" {
		return fmt.Errorf("%w: role is empty", ErrInvalidArgs)
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, role)
	}
	if _, ok := KnownResources[object]; !ok && object != WildcardResource {
		return fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, object)
	}
	if _, ok := KnownActions[action]; !ok && action != WildcardAction {
		return fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, action)
	}
	return nil
}

func validatePolicy(role Role, object Resource, action Action, effect PolicyEffect) error {
	if err := validateTriple(role, object, action); err != nil {
		return err
	}
	if effect != EffectAllow && effect != EffectDeny {
		return fmt.Errorf("%w: invalid effect: %q", ErrInvalidArgs, effect)
	}
	return nil
}
