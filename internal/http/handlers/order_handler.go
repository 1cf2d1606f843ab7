package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	applog "freshmart/internal/log"
	"freshmart/internal/services"
)

type OrderHandler struct {
	Orders   *services.OrderService
	Checkout *services.CheckoutService
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.Orders.List(c.UserContext(), userID(c), c.Query("sortBy"), c.Query("order"))
	if err != nil {
		return fail(c, "orders.list", err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	o, err := h.Orders.Get(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		// other users' orders look missing
		applog.Security(c, "access.denied.order", zap.String("order_id", c.Params("id")), zap.Error(err))
		return fail(c, "orders.view", err)
	}
	return c.JSON(o)
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var in services.PlaceOrderInput
	if ok, err := bind(c, &in); !ok {
		return err
	}
	o, err := h.Orders.Place(c.UserContext(), userID(c), in)
	if err != nil {
		return fail(c, "order.place", err)
	}
	applog.Audit(c, "order.place",
		zap.String("order_id", o.ID),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.String("delivery_type", string(o.DeliveryType)),
	)
	return c.Status(fiber.StatusCreated).JSON(o)
}

func (h *OrderHandler) StartCheckout(c *fiber.Ctx) error {
	var in services.PlaceOrderInput
	if ok, err := bind(c, &in); !ok {
		return err
	}
	res, err := h.Checkout.Start(c.UserContext(), userID(c), in)
	if err != nil {
		return fail(c, "checkout.start", err)
	}
	applog.Audit(c, "checkout.start", zap.String("order_id", res.OrderID), zap.String("session_id", res.SessionID))
	return c.JSON(res)
}
