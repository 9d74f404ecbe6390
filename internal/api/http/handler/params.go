package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/pkg/apperr"
)

var (
	ErrInvalidBody = apperr.Validation("VALIDATION_ERROR", "Request body is not valid JSON")
	ErrInvalidID   = apperr.Validation("VALIDATION_ERROR", "Invalid id")
)

func uuidParam(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Wrapf(ErrInvalidID, "%s must be a valid id", name)
	}
	return id, nil
}

func actorOf(c fiber.Ctx) (repo.Actor, error) {
	a, ok := middleware.ActorFromFiber(c)
	if !ok {
		return repo.Actor{}, middleware.ErrUnauthorized
	}
	return a, nil
}

// bindJSON decodes the body; an empty body decodes to the zero value.
func bindJSON(c fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.Bind().JSON(out); err != nil {
		return ErrInvalidBody
	}
	return nil
}
