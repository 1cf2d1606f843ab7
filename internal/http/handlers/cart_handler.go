package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	applog "freshmart/internal/log"
	"freshmart/internal/services"
)

type CartHandler struct {
	Cart *services.CartService
}

type addToCart struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type setQuantity struct {
	// zero removes the line
	Quantity *int `json:"quantity" validate:"required"`
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	cv, err := h.Cart.Get(c.UserContext(), userID(c))
	if err != nil {
		return fail(c, "cart.get", err)
	}
	return c.JSON(cv)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in addToCart
	if ok, err := bind(c, &in); !ok {
		return err
	}
	cv, err := h.Cart.Add(c.UserContext(), userID(c), in.ProductID, in.Quantity)
	if err != nil {
		return fail(c, "cart.add", err)
	}
	applog.Audit(c, "cart.add", zap.String("product_id", in.ProductID), zap.Int("qty", in.Quantity))
	return c.JSON(cv)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), userID(c)); err != nil {
		return fail(c, "cart.clear", err)
	}
	applog.Audit(c, "cart.clear")
	return c.JSON(fiber.Map{"message": "cart cleared"})
}

func (h *CartHandler) Item(c *fiber.Ctx) error {
	it, err := h.Cart.Item(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return fail(c, "cart.item", err)
	}
	return c.JSON(it)
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	var in setQuantity
	if ok, err := bind(c, &in); !ok {
		return err
	}
	cv, err := h.Cart.UpdateQuantity(c.UserContext(), userID(c), c.Params("id"), *in.Quantity)
	if err != nil {
		return fail(c, "cart.update", err)
	}
	applog.Audit(c, "cart.update", zap.String("item_id", c.Params("id")), zap.Int("qty", *in.Quantity))
	return c.JSON(cv)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	if err := h.Cart.Remove(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return fail(c, "cart.remove", err)
	}
	applog.Audit(c, "cart.remove", zap.String("item_id", c.Params("id")))
	return c.SendStatus(fiber.StatusNoContent)
}
