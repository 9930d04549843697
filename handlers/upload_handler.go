package handlers

import (
	"github.com/anjiri1684/coursehub/middleware"
	"github.com/anjiri1684/coursehub/models"
	"github.com/anjiri1684/coursehub/services"
	"github.com/gofiber/fiber/v2"
)

// CourseUploadSignature signs a direct upload into the course materials folder for its owner.
func (h *Handler) CourseUploadSignature(c *fiber.Ctx) error {
	if h.Media == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Uploads are not configured"})
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return nil
	}
	course, err := h.Courses.InstructorCourse(c.UserContext(), middleware.CallerFromCtx(c).ID, courseID)
	if err != nil {
		return h.respondError(c, err)
	}
	sig, err := h.Media.SignUpload(services.CourseMaterialFolder(course.ID))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(sig)
}

// SubmissionUploadSignature signs an upload for a file assignment the student can access.
func (h *Handler) SubmissionUploadSignature(c *fiber.Ctx) error {
	if h.Media == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Uploads are not configured"})
	}
	assignmentID, ok := uuidParam(c, "assignmentId")
	if !ok {
		return nil
	}
	caller := middleware.CallerFromCtx(c)
	assignment, err := h.Courses.GetAssignment(c.UserContext(), caller, assignmentID)
	if err != nil {
		return h.respondError(c, err)
	}
	if assignment.SubmissionKind != models.SubmissionKindFile {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Assignment does not accept file uploads"})
	}
	sig, err := h.Media.SignUpload(services.SubmissionFolder(assignment.ID, caller.ID))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(sig)
}
