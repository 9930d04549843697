package routes

import (
	"github.com/anjiri1684/coursehub/handlers"
	"github.com/anjiri1684/coursehub/middleware"
	"github.com/gofiber/fiber/v2"
)

// StudentRoutes share prefixes with the public routes, so middleware is attached per route.
func StudentRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")
	protected := middleware.Protected(secret, h.Auth)
	studentOnly := middleware.StudentRequired()

	api.Post("/courses/:courseId/enroll", protected, studentOnly, h.Enroll)
	api.Get("/enrollments/me", protected, studentOnly, h.MyEnrollments)
	api.Post("/assignments/:assignmentId/submissions", protected, studentOnly, h.SubmitAssignment)
	api.Post("/assignments/:assignmentId/uploads/signature", protected, studentOnly, h.SubmissionUploadSignature)
}
