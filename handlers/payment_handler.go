package handlers

import (
	"crypto/subtle"

	"github.com/anjiri1684/coursehub/middleware"
	"github.com/gofiber/fiber/v2"
)

const (
	webhookSecretHeader = "X-Webhook-Secret"
	eventOrderApproved  = "CHECKOUT.ORDER.APPROVED"
)

type WebhookPayload struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID string `json:"id"`
	} `json:"resource"`
}

type CaptureRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

type RefundRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) Checkout(c *fiber.Ctx) error {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return nil
	}
	session, err := h.Payments.StartCheckout(c.UserContext(), middleware.CallerFromCtx(c).ID, courseID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

func (h *Handler) CapturePayment(c *fiber.Ctx) error {
	var req CaptureRequest
	if !parseBody(c, &req) {
		return nil
	}
	studentID := middleware.CallerFromCtx(c).ID
	payment, err := h.Payments.CompleteCheckout(c.UserContext(), req.OrderID, &studentID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(payment)
}

// PaymentWebhook accepts provider notifications. Only approved orders are acted on; every
// other event is acknowledged so the provider stops retrying.
func (h *Handler) PaymentWebhook(c *fiber.Ctx) error {
	secret := h.Config.WebhookSecret
	given := c.Get(webhookSecretHeader)
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(given)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid webhook signature"})
	}

	var payload WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}
	if payload.EventType != eventOrderApproved {
		return c.JSON(fiber.Map{"message": "Event ignored"})
	}
	if payload.Resource.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing order id"})
	}

	h.Logger.Info("checkout webhook received", "event_type", payload.EventType, "order_id", payload.Resource.ID)
	if _, err := h.Payments.CompleteCheckout(c.UserContext(), payload.Resource.ID, nil); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Webhook processed successfully"})
}

func (h *Handler) RefundPayment(c *fiber.Ctx) error {
	paymentID, ok := uuidParam(c, "paymentId")
	if !ok {
		return nil
	}
	var req RefundRequest
	if !parseBody(c, &req) {
		return nil
	}
	payment, err := h.Payments.Refund(c.UserContext(), paymentID, req.Reason)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(payment)
}
