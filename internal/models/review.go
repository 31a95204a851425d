package models

import (
	"gorm.io/gorm"
)

type Review struct {
	gorm.Model
	ListingID uint    `json:"listingId" gorm:"not null;uniqueIndex:idx_reviews_listing_user"`
	Listing   Listing `json:"-"`
	UserID    uint    `json:"userId" gorm:"not null;uniqueIndex:idx_reviews_listing_user"`
	User      User    `json:"user"`
	Rating    int     `json:"rating" gorm:"not null"`
	Comment   string  `json:"comment"`
	Approved  bool    `json:"approved" gorm:"not null;default:false"`
}

func (Review) TableName() string {
	return "reviews"
}
