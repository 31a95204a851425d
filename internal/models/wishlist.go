package models

import (
	"gorm.io/gorm"
)

type WishlistItem struct {
	gorm.Model
	UserID    uint    `json:"userId" gorm:"not null;uniqueIndex:idx_wishlist_user_listing"`
	ListingID uint    `json:"listingId" gorm:"not null;uniqueIndex:idx_wishlist_user_listing"`
	Listing   Listing `json:"listing"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
