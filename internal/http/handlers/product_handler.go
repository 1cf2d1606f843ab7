package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	applog "freshmart/internal/log"
	"freshmart/internal/repos"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// maxPage keeps the OFFSET well inside int range.
const maxPage = 10000

var productSorts = map[string]bool{"": true, "price": true, "inStock": true, "name": true, "createdAt": true}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	f := repos.ProductFilter{
		SortBy:   c.Query("sortBy"),
		Category: strings.TrimSpace(c.Query("category")),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", 20),
	}
	if raw := c.Query("search"); strings.TrimSpace(raw) != "" {
		q, ok := validate.Q(raw)
		if !ok {
			applog.Security(c, "validation.fail", zap.String("field", "search"))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid search query"})
		}
		f.Search = q
	}
	if f.Page > maxPage {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "page out of range"})
	}
	if !productSorts[f.SortBy] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sortBy must be price, inStock, name or createdAt"})
	}
	switch strings.ToLower(c.Query("order")) {
	case "", "asc":
	case "desc":
		f.Desc = true
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "order must be asc or desc"})
	}

	page, err := h.Catalog.List(c.UserContext(), f)
	if err != nil {
		return fail(c, "products.list", err)
	}
	return c.JSON(page)
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "products.detail", err)
	}
	return c.JSON(p)
}

func (h *ProductHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "categories.list", err)
	}
	return c.JSON(cats)
}
