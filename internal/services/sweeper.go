package services

import (
	"context"
	"log"
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/metrics"
	"github.com/gharbeti/gharbeti-backend/internal/models"
	"gorm.io/gorm"
)

// Sweeper cancels pending bookings whose hold has lapsed.
type Sweeper struct {
	db *gorm.DB
}

func NewSweeper(db *gorm.DB) *Sweeper {
	return &Sweeper{db: db}
}

// ExpirePendingBookings bulk-cancels every pending booking past its expiry
// deadline and returns how many were cancelled. The status filter makes the
// sweep idempotent: a second run over the same set is a no-op.
func (s *Sweeper) ExpirePendingBookings(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?",
			models.BookingStatusPending, time.Now()).
		Update("status", models.BookingStatusCancelled)
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		metrics.AddBookingsExpired(result.RowsAffected)
		log.Printf("Sweeper: cancelled %d expired pending bookings", result.RowsAffected)
	}

	return result.RowsAffected, nil
}
