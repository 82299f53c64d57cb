package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BidStatus tracks a bid through the auction. Bids are inserted as Pending;
// the remaining transitions are driven outside this service (settlement job
// or back office), never recomputed here.
type BidStatus string

const (
	BidStatusPending BidStatus = "Pending"
	BidStatusWinning BidStatus = "Winning"
	BidStatusOutbid  BidStatus = "Outbid"
	BidStatusLost    BidStatus = "Lost"
)

// Bid records one accepted bid on a lot. Rows are immutable after insert
// apart from the externally driven status field. LotTitle is denormalized
// for the my-bids listing.
type Bid struct {
	*gorm.Model

	ID        uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	LotID     uuid.UUID `gorm:"type:uuid;not null;index;<-:create"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;<-:create"`
	LotTitle  string    `gorm:"type:varchar(255);not null;<-:create"`
	BidAmount int64     `gorm:"not null;<-:create"`
	Status    BidStatus `gorm:"type:varchar(16);not null;default:Pending"`

	Lot  Lot  `gorm:"foreignKey:LotID"`
	User User `gorm:"foreignKey:UserID"`
}

func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
