package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubmissionSubmitted = "submitted"
	SubmissionReviewed  = "reviewed"
)

type Submission struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	Status       string     `gorm:"size:20;not null;default:'submitted'" json:"status"`
	Grade        *float64   `gorm:"type:numeric(5,2)" json:"grade"`
	Feedback     *string    `gorm:"type:text" json:"feedback"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submitted_at"`
	ReviewedAt   *time.Time `json:"reviewed_at"`

	Assignment Assignment `gorm:"foreignKey:AssignmentID" json:"-"`
	Student    User       `gorm:"foreignKey:StudentID" json:"-"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
