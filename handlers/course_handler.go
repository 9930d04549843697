package handlers

import (
	"github.com/anjiri1684/coursehub/middleware"
	"github.com/anjiri1684/coursehub/models"
	"github.com/anjiri1684/coursehub/services"
	"github.com/gofiber/fiber/v2"
)

// CourseListing is the catalog view of a course. Descriptions are content and stay behind
// the access check on GetCourse.
type CourseListing struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	InstructorID string  `json:"instructor_id"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	IsFree       bool    `json:"is_free"`
}

func toCourseListing(c models.Course) CourseListing {
	return CourseListing{
		ID:           c.ID.String(),
		Title:        c.Title,
		InstructorID: c.InstructorID.String(),
		Price:        c.Price,
		Currency:     c.Currency,
		IsFree:       c.IsFree(),
	}
}

func (h *Handler) ListCourses(c *fiber.Ctx) error {
	page := services.Page{Page: c.QueryInt("page", 1), PageSize: c.QueryInt("page_size", services.DefaultPageSize)}
	result, err := h.Courses.ListPublished(c.UserContext(), page, c.Query("search"))
	if err != nil {
		return h.respondError(c, err)
	}

	listings := make([]CourseListing, len(result.Data))
	for i, course := range result.Data {
		listings[i] = toCourseListing(course)
	}
	return c.JSON(services.PageResult[CourseListing]{
		Data:        listings,
		TotalRows:   result.TotalRows,
		TotalPages:  result.TotalPages,
		CurrentPage: result.CurrentPage,
		PageSize:    result.PageSize,
	})
}

func (h *Handler) GetCourse(c *fiber.Ctx) error {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return nil
	}
	course, err := h.Courses.GetCourse(c.UserContext(), middleware.CallerFromCtx(c), courseID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(course)
}

func (h *Handler) ListCourseAssignments(c *fiber.Ctx) error {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return nil
	}
	assignments, err := h.Courses.ListAssignments(c.UserContext(), middleware.CallerFromCtx(c), courseID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(assignments)
}

func (h *Handler) GetAssignment(c *fiber.Ctx) error {
	assignmentID, ok := uuidParam(c, "assignmentId")
	if !ok {
		return nil
	}
	assignment, err := h.Courses.GetAssignment(c.UserContext(), middleware.CallerFromCtx(c), assignmentID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(assignment)
}
