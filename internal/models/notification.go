package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationPaymentReceived  NotificationType = "payment_received"
	NotificationKYCDecided       NotificationType = "kyc_decided"
)

// Notification is a persisted in-app notification. The payload is a tagged
// union keyed by Type; use the typed constructors and decoders rather than
// writing raw JSON into Payload.
type Notification struct {
	gorm.Model
	UserID  uint             `json:"userId" gorm:"not null;index"`
	Type    NotificationType `json:"type" gorm:"not null"`
	Payload json.RawMessage  `json:"payload" gorm:"type:jsonb"`
	ReadAt  *time.Time       `json:"readAt,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BookingNotice is the payload for booking_confirmed and booking_cancelled.
type BookingNotice struct {
	BookingID    uint          `json:"bookingId"`
	ListingTitle string        `json:"listingTitle"`
	Status       BookingStatus `json:"status"`
}

// PaymentNotice is the payload for payment_received.
type PaymentNotice struct {
	BookingID uint    `json:"bookingId"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
}

// KYCNotice is the payload for kyc_decided.
type KYCNotice struct {
	DocumentID uint      `json:"documentId"`
	Status     KYCStatus `json:"status"`
	Note       string    `json:"note,omitempty"`
}

func newNotification(userID uint, typ NotificationType, payload interface{}) (Notification, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Notification{}, err
	}
	return Notification{UserID: userID, Type: typ, Payload: raw}, nil
}

func NewBookingNotification(userID uint, typ NotificationType, notice BookingNotice) (Notification, error) {
	if typ != NotificationBookingConfirmed && typ != NotificationBookingCancelled {
		return Notification{}, fmt.Errorf("type %s does not carry a booking payload", typ)
	}
	return newNotification(userID, typ, notice)
}

func NewPaymentNotification(userID uint, notice PaymentNotice) (Notification, error) {
	return newNotification(userID, NotificationPaymentReceived, notice)
}

func NewKYCNotification(userID uint, notice KYCNotice) (Notification, error) {
	return newNotification(userID, NotificationKYCDecided, notice)
}

// DecodeBooking returns the booking payload of a booking-typed notification.
func (n *Notification) DecodeBooking() (BookingNotice, error) {
	if n.Type != NotificationBookingConfirmed && n.Type != NotificationBookingCancelled {
		return BookingNotice{}, fmt.Errorf("notification %d is %s, not a booking notification", n.ID, n.Type)
	}
	var notice BookingNotice
	err := json.Unmarshal(n.Payload, &notice)
	return notice, err
}

// DecodePayment returns the payload of a payment_received notification.
func (n *Notification) DecodePayment() (PaymentNotice, error) {
	if n.Type != NotificationPaymentReceived {
		return PaymentNotice{}, fmt.Errorf("notification %d is %s, not a payment notification", n.ID, n.Type)
	}
	var notice PaymentNotice
	err := json.Unmarshal(n.Payload, &notice)
	return notice, err
}

// DecodeKYC returns the payload of a kyc_decided notification.
func (n *Notification) DecodeKYC() (KYCNotice, error) {
	if n.Type != NotificationKYCDecided {
		return KYCNotice{}, fmt.Errorf("notification %d is %s, not a KYC notification", n.ID, n.Type)
	}
	var notice KYCNotice
	err := json.Unmarshal(n.Payload, &notice)
	return notice, err
}
