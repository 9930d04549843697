package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

type Payment struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID       uuid.UUID `gorm:"type:uuid;not null;index:idx_payment_student_course;uniqueIndex:idx_payment_open_checkout,where:status = 'pending'" json:"student_id"`
	CourseID        uuid.UUID `gorm:"type:uuid;not null;index:idx_payment_student_course;uniqueIndex:idx_payment_open_checkout,where:status = 'pending'" json:"course_id"`
	Amount          float64   `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency        string    `gorm:"size:3;not null" json:"currency"`
	Provider        string    `gorm:"size:50;not null" json:"provider"`
	ProviderOrderID *string   `gorm:"size:255;uniqueIndex" json:"provider_order_id"`
	ProviderTxnID   *string   `gorm:"size:255" json:"provider_txn_id"`
	ApproveURL      string    `gorm:"type:text" json:"-"`
	Status          string    `gorm:"size:20;not null;index" json:"status"`
	RefundReason    *string   `gorm:"type:text" json:"refund_reason,omitempty"`

	Student User   `gorm:"foreignKey:StudentID" json:"-"`
	Course  Course `gorm:"foreignKey:CourseID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
