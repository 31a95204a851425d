package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingNotificationTypeIsChecked(t *testing.T) {
	_, err := NewBookingNotification(1, NotificationPaymentReceived, BookingNotice{BookingID: 5})
	assert.Error(t, err)

	n, err := NewBookingNotification(1, NotificationBookingConfirmed, BookingNotice{
		BookingID:    5,
		ListingTitle: "Flat in Baneshwor",
		Status:       BookingStatusConfirmed,
	})
	require.NoError(t, err)

	notice, err := n.DecodeBooking()
	require.NoError(t, err)
	assert.Equal(t, uint(5), notice.BookingID)
	assert.Equal(t, BookingStatusConfirmed, notice.Status)
}

func TestDecodersRejectMismatchedType(t *testing.T) {
	n, err := NewPaymentNotification(1, PaymentNotice{BookingID: 5, Amount: 25000, Method: "Khalti"})
	require.NoError(t, err)

	_, err = n.DecodeBooking()
	assert.Error(t, err)
	_, err = n.DecodeKYC()
	assert.Error(t, err)

	notice, err := n.DecodePayment()
	require.NoError(t, err)
	assert.Equal(t, 25000.0, notice.Amount)
}
