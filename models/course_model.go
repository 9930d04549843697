package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index" json:"instructor_id"`
	IsPublished  bool      `gorm:"not null;default:false" json:"is_published"`
	Price        float64   `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	Currency     string    `gorm:"size:3;not null;default:'USD'" json:"currency"`

	Instructor User `gorm:"foreignKey:InstructorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

func (c *Course) IsFree() bool {
	return c.Price <= 0
}
