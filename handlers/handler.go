package handlers

import (
	"errors"
	"log/slog"

	config "github.com/anjiri1684/coursehub/configs"
	"github.com/anjiri1684/coursehub/access"
	"github.com/anjiri1684/coursehub/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

// Handler holds every service the HTTP layer talks to. Media and Currency may be nil
// when their providers are not configured.
type Handler struct {
	Config      *config.Config
	Auth        *services.AuthService
	Courses     *services.CourseService
	Enrollments *services.EnrollmentService
	Payments    *services.PaymentService
	Submissions *services.SubmissionService
	Admin       *services.AdminService
	Media       *services.MediaService
	Currency    *services.CurrencyService
	Logger      *slog.Logger
}

// respondError maps service and access errors onto HTTP responses.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	var denied *access.DeniedError
	if errors.As(err, &denied) {
		if denied.Decision.Outcome == access.NotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Resource not found"})
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": string(denied.Decision.Reason)})
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Resource not found"})
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrPaymentRequired):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	case errors.Is(err, services.ErrUnavailable):
		h.Logger.Warn("upstream unavailable", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable, please retry"})
	}

	h.Logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// uuidParam parses a path parameter. ok is false when a 400 has already been written.
func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// parseBody decodes and validates a JSON body. ok is false when a 400 has already been written.
func parseBody(c *fiber.Ctx, out interface{}) bool {
	if err := c.BodyParser(out); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
		return false
	}
	if err := validate.Struct(out); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		return false
	}
	return true
}
