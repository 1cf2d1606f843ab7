package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	applog "freshmart/internal/log"
	"freshmart/internal/services"
)

type AddressHandler struct {
	Addresses *services.AddressService
}

func (h *AddressHandler) List(c *fiber.Ctx) error {
	list, err := h.Addresses.List(c.UserContext(), userID(c))
	if err != nil {
		return fail(c, "address.list", err)
	}
	return c.JSON(list)
}

func (h *AddressHandler) Create(c *fiber.Ctx) error {
	var in services.AddressInput
	if ok, err := bind(c, &in); !ok {
		return err
	}
	a, err := h.Addresses.Create(c.UserContext(), userID(c), in)
	if err != nil {
		return fail(c, "address.create", err)
	}
	applog.Audit(c, "address.create", zap.String("address_id", a.ID))
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *AddressHandler) Update(c *fiber.Ctx) error {
	var in services.AddressPatch
	if ok, err := bind(c, &in); !ok {
		return err
	}
	a, err := h.Addresses.Update(c.UserContext(), userID(c), c.Params("id"), in)
	if err != nil {
		return fail(c, "address.update", err)
	}
	applog.Audit(c, "address.update", zap.String("address_id", a.ID))
	return c.JSON(a)
}

func (h *AddressHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Addresses.Delete(c.UserContext(), userID(c), id); err != nil {
		return fail(c, "address.delete", err)
	}
	applog.Audit(c, "address.delete", zap.String("address_id", id))
	return c.SendStatus(fiber.StatusNoContent)
}
