package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/mentorbook_backend/internal/service/appointment"
	"github.com/Alijeyrad/mentorbook_backend/pkg/apperr"
	"github.com/Alijeyrad/mentorbook_backend/pkg/reqctx"
)

type envelope struct {
	Success bool                  `json:"success"`
	Data    any                   `json:"data,omitempty"`
	Meta    *appointment.PageMeta `json:"meta,omitempty"`
	Message string                `json:"message,omitempty"`
	Code    string                `json:"code,omitempty"`
}

func ok(c fiber.Ctx, data any) error {
	return c.JSON(envelope{Success: true, Data: data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(envelope{Success: true, Data: data})
}

func page(c fiber.Ctx, data any, meta appointment.PageMeta) error {
	return c.JSON(envelope{Success: true, Data: data, Meta: &meta})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// ErrorHandler renders every error as {success:false,message,code}.
// Domain errors keep their kind's status; anything unknown is a logged 500.
func ErrorHandler(c fiber.Ctx, err error) error {
	status, code, msg := fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"

	var fe *fiber.Error
	if ae, isApp := apperr.As(err); isApp {
		status, code, msg = ae.Status(), ae.Code, ae.Message
	} else if errors.As(err, &fe) {
		status, code, msg = fe.Code, codeFromStatus(fe.Code), fe.Message
	}

	if status >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.Context(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", reqctx.RequestIDFromContext(c.Context()),
			"error", err,
		)
	}

	return c.Status(status).JSON(envelope{Success: false, Message: msg, Code: code})
}

func codeFromStatus(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text))
}
