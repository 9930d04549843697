package routes

import (
	"github.com/anjiri1684/coursehub/handlers"
	"github.com/gofiber/fiber/v2"
)

// Setup registers every API route on app.
func Setup(app *fiber.App, h *handlers.Handler, secret string) {
	PublicRoutes(app, h, secret)
	AuthRoutes(app, h)
	ProfileRoutes(app, h, secret)
	StudentRoutes(app, h, secret)
	PaymentRoutes(app, h, secret)
	InstructorRoutes(app, h, secret)
	AdminRoutes(app, h, secret)
}
