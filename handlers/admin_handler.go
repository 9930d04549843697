package handlers

import (
	"fmt"
	"time"

	"github.com/anjiri1684/coursehub/middleware"
	"github.com/anjiri1684/coursehub/services"
	"github.com/gofiber/fiber/v2"
)

const reportDateLayout = "2006-01-02"

func (h *Handler) GetDashboardAnalytics(c *fiber.Ctx) error {
	dashboard, err := h.Admin.Dashboard(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(dashboard)
}

func (h *Handler) GenerateTransactionReport(c *fiber.Ctx) error {
	now := time.Now().UTC()
	startDateStr := c.Query("start_date", now.AddDate(0, -1, 0).Format(reportDateLayout))
	endDateStr := c.Query("end_date", now.Format(reportDateLayout))

	startDate, err := time.Parse(reportDateLayout, startDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start_date format. Use YYYY-MM-DD."})
	}
	endDate, err := time.Parse(reportDateLayout, endDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end_date format. Use YYYY-MM-DD."})
	}

	report, err := h.Admin.TransactionReport(c.UserContext(), startDate, endDate.Add(24*time.Hour-time.Second))
	if err != nil {
		return h.respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"transactions_%s_to_%s.csv\"", startDateStr, endDateStr))
	return c.Send(report)
}

// ApplyOperation accepts {"kind": ..., "payload": {...}} and runs the bulk operation atomically.
func (h *Handler) ApplyOperation(c *fiber.Ctx) error {
	op, err := services.DecodeOperation(c.Body())
	if err != nil {
		return h.respondError(c, err)
	}
	record, err := h.Admin.ApplyOperation(c.UserContext(), middleware.CallerFromCtx(c).ID, op)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *Handler) ListOperations(c *fiber.Ctx) error {
	ops, err := h.Admin.ListOperations(c.UserContext(), c.QueryInt("limit", services.DefaultPageSize))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(ops)
}
