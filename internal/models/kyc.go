package models

import (
	"time"

	"gorm.io/gorm"
)

type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "pending"
	KYCStatusApproved KYCStatus = "approved"
	KYCStatusRejected KYCStatus = "rejected"
)

type KYCDocument struct {
	gorm.Model
	UserID       uint       `json:"userId" gorm:"not null;index"`
	User         User       `json:"-"`
	DocumentType string     `json:"documentType" gorm:"not null"` // citizenship, passport, license
	DocumentURL  string     `json:"documentUrl" gorm:"not null"`
	Status       KYCStatus  `json:"status" gorm:"not null;default:'pending'"`
	ReviewNote   string     `json:"reviewNote,omitempty"`
	ReviewedByID *uint      `json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
}

func (KYCDocument) TableName() string {
	return "kyc_documents"
}
