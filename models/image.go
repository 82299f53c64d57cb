package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image records a lot-photo upload so the per-uploader hourly rate limit can
// be enforced from the database.
type Image struct {
	gorm.Model

	ID         uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	UploaderID uuid.UUID `gorm:"type:uuid;not null;index;<-:create"`
	URL        string    `gorm:"type:text;not null;<-:create"`

	Uploader *User `gorm:"foreignKey:UploaderID"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
