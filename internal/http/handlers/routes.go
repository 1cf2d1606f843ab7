package handlers

import (
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "freshmart/internal/log"
)

type AppOptions struct {
	BodyLimit int
	// LoginMax is the number of login attempts per IP per LoginWindow.
	LoginMax    int
	LoginWindow time.Duration
}

// NewApp builds the fiber app with middleware and the full route table.
func NewApp(d *Deps, opts AppOptions) *fiber.App {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = 1 << 20
	}
	if opts.LoginMax <= 0 {
		opts.LoginMax = 5
	}
	if opts.LoginWindow <= 0 {
		opts.LoginWindow = 10 * time.Minute
	}

	app := fiber.New(fiber.Config{
		Views:                 Views(),
		BodyLimit:             opts.BodyLimit,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(otelfiber.Middleware())
	app.Use(AccessLog())
	app.Use(helmet.New())

	Register(app, d, opts)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})
	return app
}

func Register(app *fiber.App, d *Deps, opts AppOptions) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/order-success", OrderSuccess)
	app.Get("/checkout-cancelled", CheckoutCancelled)

	api := app.Group("/api")

	// public
	api.Get("/products", d.ProductHandler.List)
	api.Get("/products/:id", d.ProductHandler.Detail)
	api.Get("/categories", d.ProductHandler.Categories)
	api.Post("/discount/validate", d.DiscountHandler.Validate)
	api.Post("/stripe/webhook", d.WebhookHandler.Stripe)
	api.Post("/register", d.AuthHandler.Register)
	api.Post("/login", limiter.New(limiter.Config{
		Max:        opts.LoginMax,
		Expiration: opts.LoginWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)

	// signed in
	auth := RequireUser(d.Auth)
	api.Post("/logout", auth, d.AuthHandler.Logout)
	api.Post("/change-password", auth, d.AuthHandler.ChangePassword)

	api.Get("/cart", auth, d.CartHandler.Get)
	api.Post("/cart", auth, d.CartHandler.Add)
	api.Delete("/cart", auth, d.CartHandler.Clear)
	api.Get("/cart/:id", auth, d.CartHandler.Item)
	api.Put("/cart/:id", auth, d.CartHandler.Update)
	api.Delete("/cart/:id", auth, d.CartHandler.Remove)

	api.Get("/address", auth, d.AddressHandler.List)
	api.Post("/address", auth, d.AddressHandler.Create)
	api.Put("/address/:id", auth, d.AddressHandler.Update)
	api.Delete("/address/:id", auth, d.AddressHandler.Delete)

	api.Get("/orders", auth, d.OrderHandler.List)
	api.Post("/orders", auth, d.OrderHandler.Place)
	api.Get("/orders/:id", auth, d.OrderHandler.View)
	api.Post("/checkout", auth, d.OrderHandler.StartCheckout)

	api.Patch("/admin/orders/:id/status", auth, RequireAdmin(), d.AdminHandler.UpdateOrderStatus)
}
