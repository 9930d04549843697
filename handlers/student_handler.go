package handlers

import (
	"github.com/anjiri1684/coursehub/middleware"
	"github.com/gofiber/fiber/v2"
)

type SubmitRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *Handler) Enroll(c *fiber.Ctx) error {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return nil
	}
	enrollment, err := h.Enrollments.Enroll(c.UserContext(), middleware.CallerFromCtx(c).ID, courseID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(enrollment)
}

func (h *Handler) MyEnrollments(c *fiber.Ctx) error {
	enrollments, err := h.Enrollments.ListForStudent(c.UserContext(), middleware.CallerFromCtx(c).ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(enrollments)
}

func (h *Handler) SubmitAssignment(c *fiber.Ctx) error {
	assignmentID, ok := uuidParam(c, "assignmentId")
	if !ok {
		return nil
	}
	var req SubmitRequest
	if !parseBody(c, &req) {
		return nil
	}
	submission, err := h.Submissions.Submit(c.UserContext(), middleware.CallerFromCtx(c), assignmentID, req.Content)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(submission)
}
