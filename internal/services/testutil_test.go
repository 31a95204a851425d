package services

import (
	"testing"

	"github.com/gharbeti/gharbeti-backend/internal/database"
	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the full schema. The
// single connection keeps the in-memory database alive for the whole test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedListing(t *testing.T, db *gorm.DB, ownerID uint, status models.ListingStatus) *models.Listing {
	t.Helper()
	l := &models.Listing{
		OwnerID:    ownerID,
		Title:      "Two bedroom flat in Baneshwor",
		City:       "Kathmandu",
		RentOrSale: models.CategoryRent,
		Price:      25000,
		Status:     status,
	}
	require.NoError(t, db.Create(l).Error)
	return l
}

func seedBooking(t *testing.T, db *gorm.DB, listingID, userID uint, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ListingID:   listingID,
		UserID:      userID,
		BookingType: models.BookingTypeSale,
		TotalPrice:  25000,
		Status:      status,
	}
	require.NoError(t, db.Create(b).Error)
	return b
}
