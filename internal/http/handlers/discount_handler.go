package handlers

import (
	"github.com/gofiber/fiber/v2"

	"freshmart/internal/services"
)

type DiscountHandler struct {
	Discounts *services.DiscountService
}

type discountQuery struct {
	Code string `json:"code" validate:"required,max=32"`
}

func (h *DiscountHandler) Validate(c *fiber.Ctx) error {
	var in discountQuery
	if ok, err := bind(c, &in); !ok {
		return err
	}
	res, err := h.Discounts.Validate(c.UserContext(), in.Code)
	if err != nil {
		return fail(c, "discount.validate", err)
	}
	return c.JSON(res)
}
