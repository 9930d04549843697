package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResourceFetcher loads a resource with the parent course fields the policy needs.
// It returns ErrNotFound when the resource or its course does not exist.
type ResourceFetcher interface {
	Fetch(ctx context.Context, ref ResourceRef) (*Target, error)
}

type GormFetcher struct {
	db *gorm.DB
}

func NewGormFetcher(db *gorm.DB) *GormFetcher {
	return &GormFetcher{db: db}
}

type courseAccessRow struct {
	CourseID     uuid.UUID
	InstructorID uuid.UUID
	IsPublished  bool
	Price        float64
}

func (f *GormFetcher) Fetch(ctx context.Context, ref ResourceRef) (*Target, error) {
	if ref.ID == uuid.Nil {
		return nil, ErrNotFound
	}

	var row courseAccessRow
	var query *gorm.DB
	switch ref.Kind {
	case KindCourse:
		query = f.db.WithContext(ctx).
			Table("courses").
			Select("courses.id AS course_id, courses.instructor_id, courses.is_published, courses.price").
			Where("courses.id = ?", ref.ID)
	case KindAssignment:
		query = f.db.WithContext(ctx).
			Table("assignments").
			Select("courses.id AS course_id, courses.instructor_id, courses.is_published, courses.price").
			Joins("JOIN courses ON courses.id = assignments.course_id").
			Where("assignments.id = ?", ref.ID)
	default:
		return nil, fmt.Errorf("unknown resource kind %q", ref.Kind)
	}

	if err := query.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch %s %s: %w", ref.Kind, ref.ID, err)
	}

	return &Target{
		Ref: ref,
		Course: CourseAccess{
			ID:           row.CourseID,
			InstructorID: row.InstructorID,
			IsPublished:  row.IsPublished,
			Price:        row.Price,
		},
	}, nil
}
