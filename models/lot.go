package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LotStatus is either open or closed. A lot is closed explicitly by an
// administrator; read paths additionally report it closed once ends_at has
// passed, without mutating the row.
type LotStatus string

const (
	LotStatusOpen   LotStatus = "open"
	LotStatusClosed LotStatus = "closed"
)

// Lot represents a lot up for auction. CurrentBid starts at InitialBid and
// only moves up, one accepted bid at a time; CurrentBid and BidsCount are
// written exclusively by the bid-accept transaction.
type Lot struct {
	gorm.Model

	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;<-:create"`
	Title            string     `gorm:"type:varchar(255);not null"`
	ShortDescription string     `gorm:"type:varchar(512);not null"`
	Description      string     `gorm:"type:text;not null"`
	ImageURL         string     `gorm:"type:text;not null"`
	Images           []string   `gorm:"serializer:json"`
	InitialBid       int64      `gorm:"not null"`
	CurrentBid       int64      `gorm:"not null"`
	BidsCount        int64      `gorm:"not null;default:0"`
	EndsAt           time.Time  `gorm:"not null"`
	Status           LotStatus  `gorm:"type:varchar(16);not null;default:open"`
	CategoryID       *uuid.UUID `gorm:"type:uuid"`

	Category *Category `gorm:"foreignKey:CategoryID"`
	Bids     []Bid     `gorm:"foreignKey:LotID"`
}

func (l *Lot) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// EffectiveStatus derives the status visible to readers: a lot past its
// deadline reads as closed even before an administrator closes the row.
func (l *Lot) EffectiveStatus(now time.Time) LotStatus {
	if l.Status == LotStatusClosed || now.After(l.EndsAt) {
		return LotStatusClosed
	}
	return LotStatusOpen
}
