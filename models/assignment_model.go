package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubmissionKindFile = "file"
	SubmissionKindLink = "link"
)

type Assignment struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID       uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	SubmissionKind string    `gorm:"size:10;not null" json:"submission_kind"`
	Deadline       time.Time `gorm:"not null" json:"deadline"`

	Course Course `gorm:"foreignKey:CourseID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
