package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anjiri1684/coursehub/models"
	"github.com/anjiri1684/coursehub/notifications"
	"github.com/anjiri1684/coursehub/payments"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentService struct {
	db       *gorm.DB
	provider payments.Provider
	mailer   notifications.Mailer
	logger   *slog.Logger
	now      func() time.Time
}

func NewPaymentService(db *gorm.DB, provider payments.Provider, mailer notifications.Mailer, logger *slog.Logger) *PaymentService {
	return &PaymentService{db: db, provider: provider, mailer: mailer, logger: logger, now: time.Now}
}

type CheckoutSession struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	OrderID    string    `json:"order_id"`
	ApproveURL string    `json:"approve_url"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
}

// StartCheckout records a pending payment and opens an order with the hosted checkout. A
// student has at most one open checkout per course; asking again returns the same session.
func (s *PaymentService) StartCheckout(ctx context.Context, studentID, courseID uuid.UUID) (*CheckoutSession, error) {
	var course models.Course
	err := s.db.WithContext(ctx).Where("id = ? AND is_published = ?", courseID, true).Take(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	if course.IsFree() {
		return nil, invalid("course is free, enroll directly")
	}

	payment := models.Payment{
		StudentID: studentID,
		CourseID:  courseID,
		Amount:    course.Price,
		Currency:  course.Currency,
		Provider:  s.provider.Name(),
		Status:    models.PaymentPending,
	}
	var open *models.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var paid int64
		err := tx.Model(&models.Payment{}).
			Where("student_id = ? AND course_id = ? AND status = ?", studentID, courseID, models.PaymentCompleted).
			Count(&paid).Error
		if err != nil {
			return err
		}
		if paid > 0 {
			return fmt.Errorf("course already paid: %w", ErrConflict)
		}

		var pending models.Payment
		err = tx.Where("student_id = ? AND course_id = ? AND status = ?", studentID, courseID, models.PaymentPending).
			Take(&pending).Error
		if err == nil {
			open = &pending
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("checkout already open: %w", ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if open != nil {
		if open.ProviderOrderID == nil {
			return nil, fmt.Errorf("checkout for course %s is still opening: %w", courseID, ErrConflict)
		}
		s.logger.Info("checkout resumed", "payment_id", open.ID, "order_id", *open.ProviderOrderID, "course_id", courseID)
		return sessionFor(open), nil
	}

	order, err := s.provider.CreateOrder(ctx, payments.OrderRequest{
		ReferenceID: payment.ID.String(),
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Description: course.Title,
	})
	if err != nil {
		s.markFailed(ctx, payment.ID)
		if errors.Is(err, payments.ErrProviderRejected) {
			return nil, fmt.Errorf("open checkout: %w", err)
		}
		return nil, fmt.Errorf("open checkout: %w: %w", ErrUnavailable, err)
	}

	err = s.db.WithContext(ctx).Model(&payment).Updates(map[string]interface{}{
		"provider_order_id": order.ID,
		"approve_url":       order.ApproveURL,
	}).Error
	if err != nil {
		s.markFailed(ctx, payment.ID)
		return nil, fmt.Errorf("save order id: %w", err)
	}
	payment.ProviderOrderID = &order.ID
	payment.ApproveURL = order.ApproveURL

	s.logger.Info("checkout started", "payment_id", payment.ID, "order_id", order.ID, "course_id", courseID)
	return sessionFor(&payment), nil
}

func sessionFor(p *models.Payment) *CheckoutSession {
	session := &CheckoutSession{
		PaymentID:  p.ID,
		ApproveURL: p.ApproveURL,
		Amount:     p.Amount,
		Currency:   p.Currency,
	}
	if p.ProviderOrderID != nil {
		session.OrderID = *p.ProviderOrderID
	}
	return session
}

// CompleteCheckout captures an approved order. A completed payment is returned as is, so
// repeated calls from the student and the provider webhook are safe. When studentID is set
// the payment must belong to that student. Provider outages leave the payment pending.
func (s *PaymentService) CompleteCheckout(ctx context.Context, orderID string, studentID *uuid.UUID) (*models.Payment, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, invalid("order_id is required")
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Where("provider_order_id = ?", orderID).Take(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if studentID != nil && payment.StudentID != *studentID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}

	switch payment.Status {
	case models.PaymentCompleted:
		return &payment, nil
	case models.PaymentPending:
	default:
		return nil, fmt.Errorf("payment is %s: %w", payment.Status, ErrConflict)
	}

	order, err := s.provider.CaptureOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, payments.ErrProviderRejected) {
			s.markFailed(ctx, payment.ID)
			return nil, fmt.Errorf("capture rejected: %w", ErrPaymentRequired)
		}
		s.logger.Warn("capture failed, payment left pending", "payment_id", payment.ID, "order_id", orderID, "error", err)
		return nil, fmt.Errorf("capture order: %w: %w", ErrUnavailable, err)
	}
	if order.Status != payments.OrderCompleted {
		s.markFailed(ctx, payment.ID)
		return nil, fmt.Errorf("order status %s: %w", order.Status, ErrPaymentRequired)
	}

	// The money is taken at this point. A payment expired while the capture was in
	// flight is still completed.
	completed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": models.PaymentCompleted}
		if order.CaptureID != "" {
			updates["provider_txn_id"] = order.CaptureID
		}
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status IN ?", payment.ID, []string{models.PaymentPending, models.PaymentFailed}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current models.Payment
			if err := tx.Select("status").Take(&current, "id = ?", payment.ID).Error; err != nil {
				return err
			}
			if current.Status == models.PaymentCompleted {
				// a concurrent capture already finished it
				return nil
			}
			return fmt.Errorf("order %s captured but payment is %s: %w", orderID, current.Status, ErrConflict)
		}
		completed = true
		if _, err := createEnrollment(tx, payment.StudentID, payment.CourseID); err != nil && !errors.Is(err, ErrConflict) {
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to record captured payment", "payment_id", payment.ID, "order_id", orderID, "error", err)
		return nil, fmt.Errorf("record capture: %w", err)
	}

	if err := s.db.WithContext(ctx).Preload("Student").Preload("Course").Take(&payment, "id = ?", payment.ID).Error; err != nil {
		return nil, fmt.Errorf("reload payment: %w", err)
	}
	if !completed {
		return &payment, nil
	}

	s.logger.Info("payment completed", "payment_id", payment.ID, "course_id", payment.CourseID, "student_id", payment.StudentID)
	s.mailer.Send(notifications.Email{
		ToName:  payment.Student.FullName,
		ToEmail: payment.Student.Email,
		Subject: "Payment received",
		HTML:    fmt.Sprintf("<h1>Thank you!</h1><p>Your payment of %.2f %s for <b>%s</b> was successful.</p>", payment.Amount, payment.Currency, payment.Course.Title),
	})
	return &payment, nil
}

// Refund marks a completed payment refunded. The enrollment is kept; see RevokeRefundedAccess.
func (s *PaymentService) Refund(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	var payment *models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		payment, err = refundPayment(tx, paymentID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment refunded", "payment_id", paymentID)
	return payment, nil
}

func refundPayment(tx *gorm.DB, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("refund reason is required")
	}

	var payment models.Payment
	if err := tx.Take(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if payment.Status != models.PaymentCompleted {
		return nil, fmt.Errorf("payment %s is %s: %w", paymentID, payment.Status, ErrConflict)
	}

	err := tx.Model(&payment).Updates(map[string]interface{}{
		"status":        models.PaymentRefunded,
		"refund_reason": reason,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("refund payment: %w", err)
	}
	payment.Status = models.PaymentRefunded
	payment.RefundReason = &reason
	return &payment, nil
}

// ExpireStalePending fails checkouts that were never captured within ttl.
func (s *PaymentService) ExpireStalePending(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-ttl)
	res := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("status = ? AND created_at < ?", models.PaymentPending, cutoff).
		Update("status", models.PaymentFailed)
	if res.Error != nil {
		return 0, fmt.Errorf("expire pending payments: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// RevokeRefundedAccess removes enrollments that were paid for but whose payments have all
// been refunded. Free-course enrollments never match.
func (s *PaymentService) RevokeRefundedAccess(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where(`EXISTS (SELECT 1 FROM payments p WHERE p.student_id = enrollments.student_id AND p.course_id = enrollments.course_id AND p.status = ?)`, models.PaymentRefunded).
		Where(`NOT EXISTS (SELECT 1 FROM payments p WHERE p.student_id = enrollments.student_id AND p.course_id = enrollments.course_id AND p.status = ?)`, models.PaymentCompleted).
		Delete(&models.Enrollment{})
	if res.Error != nil {
		return 0, fmt.Errorf("revoke refunded access: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Info("revoked access after refunds", "enrollments", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

func (s *PaymentService) markFailed(ctx context.Context, paymentID uuid.UUID) {
	err := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentPending).
		Update("status", models.PaymentFailed).Error
	if err != nil {
		s.logger.Error("failed to mark payment failed", "payment_id", paymentID, "error", err)
	}
}
