package models

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type BookingType string

const (
	BookingTypeRent BookingType = "Rent"
	BookingTypeSale BookingType = "Sale"
)

const (
	PaymentStatusUnpaid = ""
	PaymentStatusPaid   = "paid"
)

// BookingHold is how long a pending booking is held before the expiry
// sweep cancels it.
const BookingHold = 24 * time.Hour

// validTransitions defines the booking lifecycle. Cancelled is terminal;
// confirmed can only be reached from pending.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled},
	BookingStatusCancelled: {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the
// target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

var (
	ErrRentDatesRequired = errors.New("startDate and endDate are required for Rent bookings")
	ErrInvalidDateRange  = errors.New("endDate must be after startDate")
)

type Booking struct {
	gorm.Model
	ListingID     uint          `json:"listingId" gorm:"not null;index"`
	Listing       Listing       `json:"listing"`
	UserID        uint          `json:"userId" gorm:"not null;index"`
	User          User          `json:"user"`
	BookingType   BookingType   `json:"bookingType" gorm:"not null"`
	StartDate     *time.Time    `json:"startDate,omitempty"`
	EndDate       *time.Time    `json:"endDate,omitempty"`
	DurationDays  int           `json:"durationDays,omitempty"`
	TotalPrice    float64       `json:"totalPrice" gorm:"not null"`
	Status        BookingStatus `json:"status" gorm:"not null;default:'pending'"`
	PaymentStatus string        `json:"paymentStatus" gorm:"not null;default:''"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	PaymentDate   *time.Time    `json:"paymentDate,omitempty"`
	Pidx          string        `json:"pidx,omitempty" gorm:"index"`
	ExpiresAt     *time.Time    `json:"expiresAt,omitempty" gorm:"index"`
}

func (Booking) TableName() string {
	return "bookings"
}

// Active reports whether the booking still ties up its listing.
func (b *Booking) Active() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// BeforeSave recomputes the rental duration from the dates. The client may
// send its own durationDays but it is never trusted.
func (b *Booking) BeforeSave(tx *gorm.DB) error {
	if b.BookingType != BookingTypeRent {
		return nil
	}
	if b.StartDate == nil || b.EndDate == nil {
		return ErrRentDatesRequired
	}
	if !b.EndDate.After(*b.StartDate) {
		return ErrInvalidDateRange
	}
	days := int(math.Ceil(b.EndDate.Sub(*b.StartDate).Hours() / 24))
	if days < 1 {
		days = 1
	}
	b.DurationDays = days
	return nil
}

// BeforeCreate starts every booking in the pending state with an expiry
// deadline for the sweep.
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.Status == "" {
		b.Status = BookingStatusPending
	}
	if b.Status == BookingStatusPending && b.ExpiresAt == nil {
		expires := time.Now().Add(BookingHold)
		b.ExpiresAt = &expires
	}
	return nil
}
