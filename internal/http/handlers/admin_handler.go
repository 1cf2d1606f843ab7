package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/services"
)

type AdminHandler struct {
	Admin *services.AdminService
}

type statusUpdate struct {
	Status string `json:"status" validate:"required"`
}

// PATCH /api/admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	var in statusUpdate
	if ok, err := bind(c, &in); !ok {
		return err
	}
	id := c.Params("id")
	next := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	o, err := h.Admin.UpdateOrderStatus(c.UserContext(), id, next)
	if err != nil {
		applog.Security(c, "admin.orders.update.fail", zap.String("order_id", id), zap.String("status", string(next)), zap.Error(err))
		return fail(c, "admin.orders.update", err)
	}
	applog.Audit(c, "admin.orders.update", zap.String("order_id", id), zap.String("status", string(next)))
	return c.JSON(o)
}
