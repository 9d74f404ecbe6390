package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/mentorbook_backend/pkg/apperr"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
)

var ErrForbidden = apperr.Forbidden("FORBIDDEN", "You do not have permission to perform this action")

// RequirePermission checks the authenticated role's capability for
// resource/action. Ownership and party checks stay in the services.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, ok := ActorFromFiber(c)
		if !ok {
			return ErrUnauthorized
		}

		if err := auth.MustEnforce(c.Context(), actor.Role, resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return ErrForbidden
			}
			return err
		}

		return c.Next()
	}
}

// RequireRole admits only the listed roles.
func RequireRole(roles ...authorize.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, ok := ActorFromFiber(c)
		if !ok {
			return ErrUnauthorized
		}
		for _, r := range roles {
			if actor.Role == r {
				return c.Next()
			}
		}
		return ErrForbidden
	}
}
