package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QualificationType string

const (
	QualificationGeneral     QualificationType = "General"
	QualificationHeavy       QualificationType = "Heavy Vehicles"
	QualificationAgriculture QualificationType = "Agricultural Machinery"
	QualificationRealEstate  QualificationType = "Real Estate"
)

// ValidQualificationType reports whether t is one of the enumerated
// qualification types a user may request.
func ValidQualificationType(t QualificationType) bool {
	switch t {
	case QualificationGeneral, QualificationHeavy, QualificationAgriculture, QualificationRealEstate:
		return true
	}
	return false
}

type QualificationStatus string

const (
	QualificationStatusPending  QualificationStatus = "Pending"
	QualificationStatusApproved QualificationStatus = "Approved"
	QualificationStatusRejected QualificationStatus = "Rejected"
)

// Qualification is a user's request to take part in a class of auctions.
// Created as Pending by the user; approval and expiry are admin-driven.
type Qualification struct {
	gorm.Model

	ID        uuid.UUID           `gorm:"type:uuid;primaryKey;<-:create"`
	UserID    uuid.UUID           `gorm:"type:uuid;not null;index;<-:create"`
	Type      QualificationType   `gorm:"type:varchar(64);not null;<-:create"`
	Status    QualificationStatus `gorm:"type:varchar(16);not null;default:Pending"`
	ExpiresAt *time.Time

	User User `gorm:"foreignKey:UserID"`
}

func (q *Qualification) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
