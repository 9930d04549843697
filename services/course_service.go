package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anjiri1684/coursehub/access"
	"github.com/anjiri1684/coursehub/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseService struct {
	db     *gorm.DB
	authz  *access.Authorizer
	logger *slog.Logger
	now    func() time.Time
}

func NewCourseService(db *gorm.DB, authz *access.Authorizer, logger *slog.Logger) *CourseService {
	return &CourseService{db: db, authz: authz, logger: logger, now: time.Now}
}

type CourseInput struct {
	Title       string
	Description string
	Price       float64
	Currency    string
}

func (in CourseInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title is required")
	}
	if in.Price < 0 {
		return invalid("price must not be negative")
	}
	if in.Currency != "" && len(in.Currency) != 3 {
		return invalid("currency must be a 3-letter ISO code")
	}
	return nil
}

func (in CourseInput) currency() string {
	if in.Currency == "" {
		return "USD"
	}
	return strings.ToUpper(in.Currency)
}

// CreateCourse stores a new unpublished course owned by instructorID.
func (s *CourseService) CreateCourse(ctx context.Context, instructorID uuid.UUID, in CourseInput) (*models.Course, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	course := models.Course{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		InstructorID: instructorID,
		Price:        in.Price,
		Currency:     in.currency(),
	}
	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	s.logger.Info("course created", "course_id", course.ID, "instructor_id", instructorID)
	return &course, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, instructorID, courseID uuid.UUID, in CourseInput) (*models.Course, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, instructorID, courseID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(course).Updates(map[string]interface{}{
		"title":       strings.TrimSpace(in.Title),
		"description": in.Description,
		"price":       in.Price,
		"currency":    in.currency(),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	return s.findCourse(ctx, courseID)
}

func (s *CourseService) SetPublished(ctx context.Context, instructorID, courseID uuid.UUID, published bool) (*models.Course, error) {
	course, err := s.ownedCourse(ctx, instructorID, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(course).Update("is_published", published).Error; err != nil {
		return nil, fmt.Errorf("set published: %w", err)
	}
	course.IsPublished = published
	s.logger.Info("course publish state changed", "course_id", courseID, "published", published)
	return course, nil
}

// GetCourse returns the course when the caller is granted access to it.
func (s *CourseService) GetCourse(ctx context.Context, caller access.Caller, courseID uuid.UUID) (*models.Course, error) {
	if err := s.authorize(ctx, caller, access.CourseRef(courseID)); err != nil {
		return nil, err
	}
	return s.findCourse(ctx, courseID)
}

// ListPublished is the public catalog. It only exposes listing fields, never course content.
func (s *CourseService) ListPublished(ctx context.Context, page Page, search string) (PageResult[models.Course], error) {
	q := s.db.WithContext(ctx).Model(&models.Course{}).Where("is_published = ?", true)
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return PageResult[models.Course]{}, fmt.Errorf("count courses: %w", err)
	}
	var courses []models.Course
	if err := q.Scopes(page.scope()).Order("created_at desc").Find(&courses).Error; err != nil {
		return PageResult[models.Course]{}, fmt.Errorf("list courses: %w", err)
	}
	return newPageResult(courses, total, page), nil
}

func (s *CourseService) ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]models.Course, error) {
	courses := []models.Course{}
	err := s.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at desc").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return courses, nil
}

type AssignmentInput struct {
	Title          string
	Description    string
	SubmissionKind string
	Deadline       time.Time
}

func (s *CourseService) CreateAssignment(ctx context.Context, instructorID, courseID uuid.UUID, in AssignmentInput) (*models.Assignment, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title is required")
	}
	if in.SubmissionKind != models.SubmissionKindFile && in.SubmissionKind != models.SubmissionKindLink {
		return nil, invalid("submission_kind must be file or link")
	}
	if !in.Deadline.After(s.now()) {
		return nil, invalid("deadline must be in the future")
	}
	if _, err := s.ownedCourse(ctx, instructorID, courseID); err != nil {
		return nil, err
	}

	assignment := models.Assignment{
		CourseID:       courseID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		SubmissionKind: in.SubmissionKind,
		Deadline:       in.Deadline.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	return &assignment, nil
}

func (s *CourseService) GetAssignment(ctx context.Context, caller access.Caller, assignmentID uuid.UUID) (*models.Assignment, error) {
	if err := s.authorize(ctx, caller, access.AssignmentRef(assignmentID)); err != nil {
		return nil, err
	}
	var assignment models.Assignment
	if err := s.db.WithContext(ctx).Take(&assignment, "id = ?", assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &assignment, nil
}

func (s *CourseService) ListAssignments(ctx context.Context, caller access.Caller, courseID uuid.UUID) ([]models.Assignment, error) {
	if err := s.authorize(ctx, caller, access.CourseRef(courseID)); err != nil {
		return nil, err
	}
	assignments := []models.Assignment{}
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("deadline asc").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// InstructorCourse returns the course only when instructorID owns it, published or not.
func (s *CourseService) InstructorCourse(ctx context.Context, instructorID, courseID uuid.UUID) (*models.Course, error) {
	return s.ownedCourse(ctx, instructorID, courseID)
}

func (s *CourseService) authorize(ctx context.Context, caller access.Caller, ref access.ResourceRef) error {
	decision, _, err := s.authz.Authorize(ctx, caller, ref)
	if err != nil {
		return fmt.Errorf("authorize %s: %w", ref.Kind, err)
	}
	return decision.Err()
}

func (s *CourseService) findCourse(ctx context.Context, courseID uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).Take(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &course, nil
}

func (s *CourseService) ownedCourse(ctx context.Context, instructorID, courseID uuid.UUID) (*models.Course, error) {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != instructorID {
		return nil, fmt.Errorf("not your course: %w", ErrForbidden)
	}
	return course, nil
}
