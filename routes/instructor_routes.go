package routes

import (
	"github.com/anjiri1684/coursehub/handlers"
	"github.com/anjiri1684/coursehub/middleware"
	"github.com/gofiber/fiber/v2"
)

func InstructorRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	instructor := api.Group("/instructor", middleware.Protected(secret, h.Auth), middleware.InstructorRequired())

	courses := instructor.Group("/courses")
	courses.Post("", h.CreateCourse)
	courses.Get("", h.ListMyCourses)
	courses.Put("/:courseId", h.UpdateCourse)
	courses.Put("/:courseId/publish", h.PublishCourse)
	courses.Post("/:courseId/assignments", h.CreateAssignment)
	courses.Post("/:courseId/uploads/signature", h.CourseUploadSignature)

	instructor.Get("/assignments/:assignmentId/submissions", h.ListSubmissions)
	instructor.Put("/submissions/:submissionId/review", h.ReviewSubmission)
}
