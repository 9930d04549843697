package routes

import (
	"github.com/anjiri1684/coursehub/handlers"
	"github.com/anjiri1684/coursehub/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(secret, h.Auth), middleware.AdminRequired())

	admin.Get("/dashboard", h.GetDashboardAnalytics)
	admin.Post("/payments/:paymentId/refund", h.RefundPayment)

	reports := admin.Group("/reports")
	reports.Get("/transactions", h.GenerateTransactionReport)

	operations := admin.Group("/operations")
	operations.Post("", h.ApplyOperation)
	operations.Get("", h.ListOperations)
}
