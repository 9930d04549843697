package routes

import (
	"github.com/anjiri1684/coursehub/handlers"
	"github.com/anjiri1684/coursehub/middleware"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	profile := api.Group("/profile/me", middleware.Protected(secret, h.Auth))
	profile.Get("", h.GetProfile)
	profile.Put("", h.UpdateProfile)
}
