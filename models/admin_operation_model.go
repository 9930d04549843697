package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminOperation is the audit trail of bulk operations applied from the admin console.
type AdminOperation struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AdminID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"admin_id"`
	Kind      string         `gorm:"size:50;not null" json:"kind"`
	Payload   datatypes.JSON `json:"payload"`
	Affected  int64          `gorm:"not null;default:0" json:"affected"`
	CreatedAt time.Time      `json:"created_at"`
}

func (o *AdminOperation) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}
