package services

import (
	"context"
	"testing"
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpirePendingBookings(t *testing.T) {
	db := newTestDB(t)
	sweeper := NewSweeper(db)

	owner := seedUser(t, db, "owner", models.RoleUser)
	renter := seedUser(t, db, "renter", models.RoleUser)
	listing := seedListing(t, db, owner.ID, models.ListingStatusActive)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	expired := seedBooking(t, db, listing.ID, renter.ID, models.BookingStatusPending)
	require.NoError(t, db.Model(expired).Update("expires_at", past).Error)

	fresh := seedBooking(t, db, listing.ID, renter.ID, models.BookingStatusPending)
	require.NoError(t, db.Model(fresh).Update("expires_at", future).Error)

	// A confirmed booking past its old deadline must never be swept.
	confirmed := seedBooking(t, db, listing.ID, renter.ID, models.BookingStatusConfirmed)
	require.NoError(t, db.Model(confirmed).Update("expires_at", past).Error)

	n, err := sweeper.ExpirePendingBookings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var got models.Booking
	require.NoError(t, db.First(&got, expired.ID).Error)
	assert.Equal(t, models.BookingStatusCancelled, got.Status)

	got = models.Booking{}
	require.NoError(t, db.First(&got, fresh.ID).Error)
	assert.Equal(t, models.BookingStatusPending, got.Status)

	got = models.Booking{}
	require.NoError(t, db.First(&got, confirmed.ID).Error)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)
}

func TestExpirePendingBookingsIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	sweeper := NewSweeper(db)

	owner := seedUser(t, db, "owner", models.RoleUser)
	renter := seedUser(t, db, "renter", models.RoleUser)
	listing := seedListing(t, db, owner.ID, models.ListingStatusActive)

	booking := seedBooking(t, db, listing.ID, renter.ID, models.BookingStatusPending)
	require.NoError(t, db.Model(booking).Update("expires_at", time.Now().Add(-time.Minute)).Error)

	n, err := sweeper.ExpirePendingBookings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = sweeper.ExpirePendingBookings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestExpirePendingBookingsEmptySet(t *testing.T) {
	db := newTestDB(t)

	n, err := NewSweeper(db).ExpirePendingBookings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
