package access

import (
	"context"
	"fmt"

	"github.com/anjiri1684/coursehub/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntitlementLookup answers whether a student paid for and is enrolled in a course.
type EntitlementLookup interface {
	HasCompletedPayment(ctx context.Context, studentID, courseID uuid.UUID) (bool, error)
	IsEnrolled(ctx context.Context, studentID, courseID uuid.UUID) (bool, error)
}

type GormEntitlements struct {
	db *gorm.DB
}

func NewGormEntitlements(db *gorm.DB) *GormEntitlements {
	return &GormEntitlements{db: db}
}

// HasCompletedPayment only counts payments whose status is exactly completed.
func (e *GormEntitlements) HasCompletedPayment(ctx context.Context, studentID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := e.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("student_id = ? AND course_id = ? AND status = ?", studentID, courseID, models.PaymentCompleted).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count completed payments: %w", err)
	}
	return count > 0, nil
}

func (e *GormEntitlements) IsEnrolled(ctx context.Context, studentID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := e.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count enrollments: %w", err)
	}
	return count > 0, nil
}
