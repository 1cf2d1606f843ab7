package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.Registration
	if ok, err := bind(c, &in); !ok {
		return err
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			applog.Security(c, "auth.register.duplicate")
		}
		return fail(c, "auth.register", err)
	}
	applog.Audit(c, "auth.register", zap.String("user_id", u.ID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": u.ID, "email": u.Email})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in services.Credentials
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	email, ok := validate.Email(in.Email)
	if !ok || in.Password == "" {
		applog.Security(c, "auth.login.fail", zap.String("reason", "bad_format"))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	in.Email = email

	tok, u, err := h.Auth.Login(c.UserContext(), in)
	if errors.Is(err, services.ErrBadCreds) {
		applog.Security(c, "auth.login.fail", zap.String("email", email))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if err != nil {
		return fail(c, "auth.login", err)
	}
	c.Locals("userID", u.ID)
	applog.Audit(c, "auth.login.success")
	return c.JSON(tok)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Logout(c.UserContext(), principal(c)); err != nil {
		return fail(c, "auth.logout", err)
	}
	applog.Audit(c, "auth.logout")
	return c.JSON(fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var in services.PasswordChange
	if ok, err := bind(c, &in); !ok {
		return err
	}
	if err := h.Auth.ChangePassword(c.UserContext(), principal(c), in); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			applog.Security(c, "auth.password.change.fail")
		}
		return fail(c, "auth.change_password", err)
	}
	applog.Audit(c, "auth.password.change")
	return c.JSON(fiber.Map{"message": "password updated"})
}
