package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GetConversionRate returns the USD rate for ?currency= (default KES).
func (h *Handler) GetConversionRate(c *fiber.Ctx) error {
	if h.Currency == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Exchange rates are not configured"})
	}
	currency := strings.ToUpper(c.Query("currency", "KES"))

	rates, err := h.Currency.Rates(c.UserContext())
	if err != nil {
		h.Logger.Warn("exchange rates unavailable", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Could not fetch exchange rates"})
	}
	rate, ok := rates[currency]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": currency + " rate not available"})
	}
	return c.JSON(fiber.Map{"base": "USD", "currency": currency, "rate": rate})
}
