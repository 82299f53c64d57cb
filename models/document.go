package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "Pending"
	DocumentStatusApproved DocumentStatus = "Approved"
	DocumentStatusRejected DocumentStatus = "Rejected"
)

// Document is an identity/qualification file uploaded by a user and reviewed
// by the back office. Replacing the file always resets the row to Pending
// and clears any rejection reason; RejectionReason is set only on rejection
// and never without a reason.
type Document struct {
	gorm.Model

	ID              uuid.UUID      `gorm:"type:uuid;primaryKey;<-:create"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index;<-:create"`
	Name            string         `gorm:"type:varchar(255);not null"`
	FileURL         string         `gorm:"type:text;not null"`
	StoragePath     string         `gorm:"type:text;not null"`
	Status          DocumentStatus `gorm:"type:varchar(16);not null;default:Pending"`
	RejectionReason *string        `gorm:"type:text"`
	UploadedAt      time.Time      `gorm:"not null"`

	User User `gorm:"foreignKey:UserID"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
