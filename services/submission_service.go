package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/anjiri1684/coursehub/access"
	"github.com/anjiri1684/coursehub/models"
	"github.com/anjiri1684/coursehub/notifications"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionService struct {
	db     *gorm.DB
	authz  *access.Authorizer
	mailer notifications.Mailer
	logger *slog.Logger
	now    func() time.Time
}

func NewSubmissionService(db *gorm.DB, authz *access.Authorizer, mailer notifications.Mailer, logger *slog.Logger) *SubmissionService {
	return &SubmissionService{db: db, authz: authz, mailer: mailer, logger: logger, now: time.Now}
}

// Submit stores the student's work for an assignment they have access to. A submission can
// be replaced until the deadline unless it has already been reviewed.
func (s *SubmissionService) Submit(ctx context.Context, caller access.Caller, assignmentID uuid.UUID, content string) (*models.Submission, error) {
	if caller.Role != access.RoleStudent || caller.IsAnonymous() {
		return nil, fmt.Errorf("only students submit work: %w", ErrForbidden)
	}
	decision, _, err := s.authz.Authorize(ctx, caller, access.AssignmentRef(assignmentID))
	if err != nil {
		return nil, fmt.Errorf("authorize assignment: %w", err)
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}

	var assignment models.Assignment
	if err := s.db.WithContext(ctx).Take(&assignment, "id = ?", assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	now := s.now().UTC()
	if now.After(assignment.Deadline) {
		return nil, invalid("the deadline for this assignment has passed")
	}
	content = strings.TrimSpace(content)
	if err := validateSubmissionContent(assignment.SubmissionKind, content); err != nil {
		return nil, err
	}

	var submission models.Submission
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("assignment_id = ? AND student_id = ?", assignmentID, caller.ID).Take(&submission).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			submission = models.Submission{
				AssignmentID: assignmentID,
				StudentID:    caller.ID,
				Content:      content,
				Status:       models.SubmissionSubmitted,
				SubmittedAt:  now,
			}
			return tx.Create(&submission).Error
		}
		if err != nil {
			return err
		}
		if submission.Status == models.SubmissionReviewed {
			return fmt.Errorf("submission already reviewed: %w", ErrConflict)
		}
		submission.Content = content
		submission.SubmittedAt = now
		return tx.Model(&submission).Updates(map[string]interface{}{
			"content":      content,
			"submitted_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("assignment submitted", "assignment_id", assignmentID, "student_id", caller.ID)
	return &submission, nil
}

func validateSubmissionContent(kind, content string) error {
	if content == "" {
		return invalid("content is required")
	}
	u, err := url.ParseRequestURI(content)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		if kind == models.SubmissionKindFile {
			return invalid("content must be the URL of the uploaded file")
		}
		return invalid("content must be an http(s) link")
	}
	return nil
}

func (s *SubmissionService) ListForAssignment(ctx context.Context, instructorID, assignmentID uuid.UUID) ([]models.Submission, error) {
	if _, err := s.ownedAssignment(ctx, instructorID, assignmentID); err != nil {
		return nil, err
	}
	submissions := []models.Submission{}
	err := s.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at asc").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// Review grades a submission on a 0-100 scale. Only the owner of the course may review.
func (s *SubmissionService) Review(ctx context.Context, instructorID, submissionID uuid.UUID, grade float64, feedback string) (*models.Submission, error) {
	if grade < 0 || grade > 100 {
		return nil, invalid("grade must be between 0 and 100")
	}

	var submission models.Submission
	if err := s.db.WithContext(ctx).Preload("Student").Take(&submission, "id = ?", submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	assignment, err := s.ownedAssignment(ctx, instructorID, submission.AssignmentID)
	if err != nil {
		return nil, err
	}

	reviewedAt := s.now().UTC()
	var fb *string
	if feedback = strings.TrimSpace(feedback); feedback != "" {
		fb = &feedback
	}
	err = s.db.WithContext(ctx).Model(&submission).Updates(map[string]interface{}{
		"status":      models.SubmissionReviewed,
		"grade":       grade,
		"feedback":    fb,
		"reviewed_at": reviewedAt,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("review submission: %w", err)
	}
	submission.Status = models.SubmissionReviewed
	submission.Grade = &grade
	submission.Feedback = fb
	submission.ReviewedAt = &reviewedAt

	s.mailer.Send(notifications.Email{
		ToName:  submission.Student.FullName,
		ToEmail: submission.Student.Email,
		Subject: "Your submission was reviewed",
		HTML:    fmt.Sprintf("<h1>%s</h1><p>Your grade: <b>%.1f</b></p>", assignment.Title, grade),
	})
	return &submission, nil
}

func (s *SubmissionService) ownedAssignment(ctx context.Context, instructorID, assignmentID uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := s.db.WithContext(ctx).Preload("Course").Take(&assignment, "id = ?", assignmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if assignment.Course.ID == uuid.Nil {
		return nil, fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
	}
	if assignment.Course.InstructorID != instructorID {
		return nil, fmt.Errorf("not your course: %w", ErrForbidden)
	}
	return &assignment, nil
}
