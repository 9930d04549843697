package handlers

import (
	"time"

	"github.com/anjiri1684/coursehub/middleware"
	"github.com/anjiri1684/coursehub/services"
	"github.com/gofiber/fiber/v2"
)

type CourseRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
}

func (r CourseRequest) input() services.CourseInput {
	return services.CourseInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Currency:    r.Currency,
	}
}

type PublishRequest struct {
	Published *bool `json:"published" validate:"required"`
}

type AssignmentRequest struct {
	Title          string    `json:"title" validate:"required,max=255"`
	Description    string    `json:"description"`
	SubmissionKind string    `json:"submission_kind" validate:"required,oneof=file link"`
	Deadline       time.Time `json:"deadline" validate:"required"`
}

type ReviewRequest struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0,lte=100"`
	Feedback string   `json:"feedback"`
}

func (h *Handler) CreateCourse(c *fiber.Ctx) error {
	var req CourseRequest
	if !parseBody(c, &req) {
		return nil
	}
	course, err := h.Courses.CreateCourse(c.UserContext(), middleware.CallerFromCtx(c).ID, req.input())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

func (h *Handler) ListMyCourses(c *fiber.Ctx) error {
	courses, err := h.Courses.ListByInstructor(c.UserContext(), middleware.CallerFromCtx(c).ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(courses)
}

func (h *Handler) UpdateCourse(c *fiber.Ctx) error {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return nil
	}
	var req CourseRequest
	if !parseBody(c, &req) {
		return nil
	}
	course, err := h.Courses.UpdateCourse(c.UserContext(), middleware.CallerFromCtx(c).ID, courseID, req.input())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(course)
}

func (h *Handler) PublishCourse(c *fiber.Ctx) error {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return nil
	}
	var req PublishRequest
	if !parseBody(c, &req) {
		return nil
	}
	course, err := h.Courses.SetPublished(c.UserContext(), middleware.CallerFromCtx(c).ID, courseID, *req.Published)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(course)
}

func (h *Handler) CreateAssignment(c *fiber.Ctx) error {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return nil
	}
	var req AssignmentRequest
	if !parseBody(c, &req) {
		return nil
	}
	assignment, err := h.Courses.CreateAssignment(c.UserContext(), middleware.CallerFromCtx(c).ID, courseID, services.AssignmentInput{
		Title:          req.Title,
		Description:    req.Description,
		SubmissionKind: req.SubmissionKind,
		Deadline:       req.Deadline,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(assignment)
}

func (h *Handler) ListSubmissions(c *fiber.Ctx) error {
	assignmentID, ok := uuidParam(c, "assignmentId")
	if !ok {
		return nil
	}
	submissions, err := h.Submissions.ListForAssignment(c.UserContext(), middleware.CallerFromCtx(c).ID, assignmentID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(submissions)
}

func (h *Handler) ReviewSubmission(c *fiber.Ctx) error {
	submissionID, ok := uuidParam(c, "submissionId")
	if !ok {
		return nil
	}
	var req ReviewRequest
	if !parseBody(c, &req) {
		return nil
	}
	submission, err := h.Submissions.Review(c.UserContext(), middleware.CallerFromCtx(c).ID, submissionID, *req.Grade, req.Feedback)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(submission)
}
