package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	applog "freshmart/internal/log"
	"freshmart/internal/services"
)

type WebhookHandler struct {
	Payments *services.PaymentService
}

// Stripe posts here; the body must stay byte-exact for signature checks.
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	sig := c.Get("Stripe-Signature")
	if sig == "" {
		applog.Security(c, "webhook.signature.missing")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing signature"})
	}
	payload := append([]byte(nil), c.Body()...)
	res, err := h.Payments.HandleWebhook(c.UserContext(), payload, sig)
	if err != nil {
		applog.Security(c, "webhook.rejected", zap.Error(err))
		return fail(c, "webhook.handle", err)
	}
	if res.Updated {
		applog.Audit(c, "webhook.processed", zap.String("order_id", res.OrderID))
	}
	return c.JSON(res)
}
