package services

import (
	"errors"

	"github.com/gharbeti/gharbeti-backend/internal/models"
	"gorm.io/gorm"
)

// Guard errors map to 400-class rejections in the admin handlers.
var (
	ErrBanSelf          = errors.New("admins cannot ban themselves")
	ErrBanAdmin         = errors.New("admin accounts cannot be banned")
	ErrUserHasBookings  = errors.New("user has active bookings and cannot be banned")
	ErrListingIsRented  = errors.New("rented listings cannot be locked")
	ErrListingHasActive = errors.New("listing has active bookings and cannot be locked")
	ErrLockReasonEmpty  = errors.New("a lock reason is required")
)

// CountActiveUserBookings counts the bookings that still tie a user to a
// listing. Runs on whatever handle it is given, so callers can evaluate it
// inside the same transaction as the write it gates.
func CountActiveUserBookings(tx *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.Booking{}).
		Where("user_id = ? AND status IN ?", userID,
			[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed}).
		Count(&count).Error
	return count, err
}

// CountActiveListingBookings counts pending or confirmed bookings against a
// listing.
func CountActiveListingBookings(tx *gorm.DB, listingID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.Booking{}).
		Where("listing_id = ? AND status IN ?", listingID,
			[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed}).
		Count(&count).Error
	return count, err
}

// CanBanUser decides whether an admin may ban the target. Returns nil when
// the ban is allowed.
func CanBanUser(tx *gorm.DB, actingAdminID uint, target *models.User) error {
	if target.ID == actingAdminID {
		return ErrBanSelf
	}
	if target.IsAdmin() {
		return ErrBanAdmin
	}
	count, err := CountActiveUserBookings(tx, target.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUserHasBookings
	}
	return nil
}

// CanLockListing decides whether an admin may lock the listing. Returns nil
// when the lock is allowed.
func CanLockListing(tx *gorm.DB, listing *models.Listing) error {
	if listing.Status == models.ListingStatusRented {
		return ErrListingIsRented
	}
	count, err := CountActiveListingBookings(tx, listing.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrListingHasActive
	}
	return nil
}
