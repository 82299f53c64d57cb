package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups lots on the storefront (vehicles, machinery, real estate...).
type Category struct {
	gorm.Model

	ID   uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	Slug string    `gorm:"type:varchar(64);uniqueIndex:idx_categories_slug,where:deleted_at IS NULL;not null;<-:create"`
	Name string    `gorm:"type:varchar(255);not null"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
