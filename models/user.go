package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserType controls access to the back office and moderation surfaces.
type UserType string

const (
	UserTypeUser      UserType = "user"
	UserTypeModerator UserType = "moderator"
	UserTypeAdmin     UserType = "admin"
)

// User represents an account in the auction house. Email is the login
// identity and is immutable after sign-up.
type User struct {
	gorm.Model

	ID           uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex:idx_users_email,where:deleted_at IS NULL;not null;<-:create"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	FirstName    string    `gorm:"type:varchar(255);not null"`
	LastName     string    `gorm:"type:varchar(255);not null"`
	UserType     UserType  `gorm:"type:varchar(32);not null;default:user"`
	IsActive     bool      `gorm:"not null;default:true"`

	// Typed optional profile fields, not an open metadata map.
	Phone          *string `gorm:"type:varchar(32)"`
	DocumentNumber *string `gorm:"type:varchar(32)"`

	Bids           []Bid           `gorm:"foreignKey:UserID"`
	Qualifications []Qualification `gorm:"foreignKey:UserID"`
	Documents      []Document      `gorm:"foreignKey:UserID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
