package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/services"
)

const principalKey = "principal"

// RequireUser admits requests carrying a valid bearer token for a live
// session. The principal is stored in Locals for the handlers.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			applog.Security(c, "auth.token.missing")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		p, err := auth.Authenticate(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			applog.Security(c, "auth.token.rejected", zap.Error(err))
			return fail(c, "auth.authenticate", err)
		}
		c.Locals(principalKey, p)
		c.Locals("userID", p.User.ID)
		return c.Next()
	}
}

// RequireAdmin must run after RequireUser.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := principal(c)
		if p == nil || p.User.Role != domain.RoleAdmin {
			applog.Security(c, "access.denied.admin")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}

func principal(c *fiber.Ctx) *services.Principal {
	p, _ := c.Locals(principalKey).(*services.Principal)
	return p
}

func userID(c *fiber.Ctx) string {
	if p := principal(c); p != nil {
		return p.User.ID
	}
	return ""
}
