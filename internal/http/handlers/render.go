package handlers

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views returns the template engine for the landing pages.
func Views() *html.Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	return c.Render(tmpl, data, "layout")
}

// OrderSuccess is where the payment page sends the customer after paying.
func OrderSuccess(c *fiber.Ctx) error {
	return render(c, "order_success", fiber.Map{"Title": "Order placed", "SessionID": c.Query("session_id")})
}

func CheckoutCancelled(c *fiber.Ctx) error {
	return render(c, "checkout_cancelled", fiber.Map{"Title": "Checkout cancelled"})
}
