package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anjiri1684/coursehub/access"
	"github.com/anjiri1684/coursehub/models"
	"github.com/anjiri1684/coursehub/notifications"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentService struct {
	db           *gorm.DB
	entitlements access.EntitlementLookup
	mailer       notifications.Mailer
	logger       *slog.Logger
}

func NewEnrollmentService(db *gorm.DB, entitlements access.EntitlementLookup, mailer notifications.Mailer, logger *slog.Logger) *EnrollmentService {
	return &EnrollmentService{db: db, entitlements: entitlements, mailer: mailer, logger: logger}
}

// Enroll adds the student to a published course. Paid courses need a completed payment first.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseID uuid.UUID) (*models.Enrollment, error) {
	var course models.Course
	err := s.db.WithContext(ctx).Where("id = ? AND is_published = ?", courseID, true).Take(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
		}
		return nil, fmt.Errorf("get course: %w", err)
	}

	if !course.IsFree() {
		paid, err := s.entitlements.HasCompletedPayment(ctx, studentID, courseID)
		if err != nil {
			return nil, err
		}
		if !paid {
			return nil, ErrPaymentRequired
		}
	}

	enrollment, err := createEnrollment(s.db.WithContext(ctx), studentID, courseID)
	if err != nil {
		return nil, err
	}
	enrollment.Course = course

	s.logger.Info("student enrolled", "student_id", studentID, "course_id", courseID)
	var student models.User
	if err := s.db.WithContext(ctx).Take(&student, "id = ?", studentID).Error; err == nil {
		s.mailer.Send(notifications.Email{
			ToName:  student.FullName,
			ToEmail: student.Email,
			Subject: "You're enrolled in " + course.Title,
			HTML:    fmt.Sprintf("<h1>Enrollment confirmed</h1><p>You now have access to <b>%s</b>.</p>", course.Title),
		})
	}
	return enrollment, nil
}

func (s *EnrollmentService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error) {
	enrollments := []models.Enrollment{}
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("enrolled_at desc").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// createEnrollment is shared with checkout completion, which calls it inside its transaction.
func createEnrollment(tx *gorm.DB, studentID, courseID uuid.UUID) (*models.Enrollment, error) {
	var count int64
	err := tx.Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("enrollment: %w", ErrConflict)
	}

	enrollment := models.Enrollment{StudentID: studentID, CourseID: courseID}
	if err := tx.Create(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("enrollment: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create enrollment: %w", err)
	}
	return &enrollment, nil
}
