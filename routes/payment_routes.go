package routes

import (
	"github.com/anjiri1684/coursehub/handlers"
	"github.com/anjiri1684/coursehub/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	api.Post("/payments/webhook", h.PaymentWebhook)

	protected := middleware.Protected(secret, h.Auth)
	studentOnly := middleware.StudentRequired()
	api.Post("/courses/:courseId/checkout", protected, studentOnly, h.Checkout)
	api.Post("/payments/capture", protected, studentOnly, h.CapturePayment)
}
