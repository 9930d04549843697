package routes

import (
	"github.com/anjiri1684/coursehub/handlers"
	"github.com/anjiri1684/coursehub/middleware"
	"github.com/gofiber/fiber/v2"
)

// PublicRoutes serve anonymous callers too. A token, when sent, must be valid.
func PublicRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")
	optional := middleware.OptionalAuth(secret, h.Auth)

	api.Get("/currency/rate", h.GetConversionRate)

	api.Get("/courses", h.ListCourses)
	api.Get("/courses/:courseId", optional, h.GetCourse)
	api.Get("/courses/:courseId/assignments", optional, h.ListCourseAssignments)
	api.Get("/assignments/:assignmentId", optional, h.GetAssignment)
}
