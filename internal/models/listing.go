package models

import (
	"gorm.io/gorm"
)

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusSold     ListingStatus = "sold"
	ListingStatusRented   ListingStatus = "rented"
	ListingStatusInactive ListingStatus = "inactive"
)

type ListingCategory string

const (
	CategoryRent ListingCategory = "Rent"
	CategorySale ListingCategory = "Sale"
)

type Listing struct {
	gorm.Model
	OwnerID      uint            `json:"ownerId" gorm:"not null;index"`
	Owner        User            `json:"owner"`
	Title        string          `json:"title" gorm:"not null"`
	Description  string          `json:"description"`
	City         string          `json:"city" gorm:"index"`
	Address      string          `json:"address"`
	PropertyType string          `json:"propertyType"` // house, apartment, room, land
	RentOrSale   ListingCategory `json:"rentOrSale" gorm:"not null"`
	Price        float64         `json:"price" gorm:"not null"`
	Status       ListingStatus   `json:"status" gorm:"not null;default:'active'"`
	AdminLocked  bool            `json:"adminLockedStatus" gorm:"not null;default:false"`
	LockReason   string          `json:"lockReason,omitempty"`
	ImageURL     string          `json:"imageUrl"`
}

func (Listing) TableName() string {
	return "listings"
}

// Bookable reports whether a new booking may be taken against the listing.
func (l *Listing) Bookable() bool {
	return l.Status == ListingStatusActive && !l.AdminLocked
}
