package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/payments"
	"freshmart/internal/validate"
)

const genericError = "Something went wrong. Please try again."

// fail maps a service error to a status and a client-safe message. Unknown
// errors are logged under action and answered with a generic 500.
func fail(c *fiber.Ctx, action string, err error) error {
	status, msg := statusOf(err)
	if status >= fiber.StatusInternalServerError {
		applog.Error(c, action, err)
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	case errors.Is(err, payments.ErrInvalidSignature):
		return fiber.StatusBadRequest, "invalid signature"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, payments.ErrUnavailable):
		return fiber.StatusServiceUnavailable, "payment service temporarily unavailable"
	case errors.Is(err, payments.ErrGateway):
		return fiber.StatusBadGateway, "payment service error"
	}
	return fiber.StatusInternalServerError, genericError
}

// bind parses the JSON body into dst and runs its validate tags. When ok is
// false the 400 has already been written and err is the write result.
func bind(c *fiber.Ctx, dst any) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		applog.Security(c, "validation.fail", zap.String("reason", "bad_body"))
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(dst); err != nil {
		fields := validate.FormatErrors(err)
		applog.Security(c, "validation.fail", zap.String("reason", "bad_fields"), zap.Any("fields", fields))
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "fields": fields})
	}
	return true, nil
}

// ErrorHandler is the app-wide fallback for errors no handler answered,
// including recovered panics.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code >= fiber.StatusInternalServerError {
			applog.Error(c, "server.error", err)
			return c.Status(fe.Code).JSON(fiber.Map{"error": genericError})
		}
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericError})
}
