package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/metrics"
	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gharbeti/gharbeti-backend/internal/services"
	"github.com/gharbeti/gharbeti-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errDuplicateBooking = errors.New("duplicate active booking")

// CreateBooking handles the creation of a new booking against a listing
func CreateBooking(db *gorm.DB, cache *services.Cache, mailer *utils.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			ListingID   uint       `json:"listingId" binding:"required"`
			BookingType string     `json:"bookingType" binding:"required,oneof=Rent Sale"`
			StartDate   *time.Time `json:"startDate"`
			EndDate     *time.Time `json:"endDate"`
			TotalPrice  *float64   `json:"totalPrice" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if *input.TotalPrice < 0 {
			c.JSON(400, gin.H{"error": "totalPrice must be non-negative"})
			return
		}

		if input.BookingType == string(models.BookingTypeRent) {
			if input.StartDate == nil || input.EndDate == nil {
				c.JSON(400, gin.H{"error": "startDate and endDate are required for Rent bookings"})
				return
			}
			if !input.EndDate.After(*input.StartDate) {
				c.JSON(400, gin.H{"error": "endDate must be after startDate"})
				return
			}
		}

		var listing models.Listing
		if err := db.First(&listing, input.ListingID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Listing not found"})
			return
		}

		if listing.OwnerID == userId {
			c.JSON(400, gin.H{"error": "You cannot book your own listing"})
			return
		}
		if !listing.Bookable() {
			c.JSON(400, gin.H{"error": "Listing is not available for booking"})
			return
		}

		booking := models.Booking{
			ListingID:   input.ListingID,
			UserID:      userId,
			BookingType: models.BookingType(input.BookingType),
			StartDate:   input.StartDate,
			EndDate:     input.EndDate,
			TotalPrice:  *input.TotalPrice,
			Status:      models.BookingStatusPending,
		}

		// The duplicate-booking check and the insert commit together so a
		// concurrent request cannot slip a second active booking in between.
		err := db.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Booking{}).
				Where("listing_id = ? AND user_id = ? AND status IN ?",
					input.ListingID, userId,
					[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed}).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errDuplicateBooking
			}
			return tx.Create(&booking).Error
		})
		if errors.Is(err, errDuplicateBooking) {
			c.JSON(400, gin.H{"error": "You already have an active booking for this listing"})
			return
		}
		if errors.Is(err, models.ErrRentDatesRequired) || errors.Is(err, models.ErrInvalidDateRange) {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to create booking"})
			return
		}

		metrics.IncBookingsCreated()
		publishBookingEvent(cache, &booking)

		go func() {
			var owner models.User
			if err := db.First(&owner, listing.OwnerID).Error; err != nil {
				return
			}
			var renter models.User
			if err := db.First(&renter, userId).Error; err != nil {
				return
			}
			if err := mailer.SendBookingRequestEmail(owner.Email, listing.Title, renter.Username); err != nil {
				log.Printf("Failed to send booking request email: %v", err)
			}
		}()

		c.JSON(201, booking)
	}
}

// GetMyBookings retrieves all bookings made by the requesting user
func GetMyBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var bookings []models.Booking
		if err := db.Where("user_id = ?", userId).
			Preload("Listing").
			Order("created_at DESC").
			Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		c.JSON(200, bookings)
	}
}

// GetAgentBookings retrieves all bookings against the requesting user's listings
func GetAgentBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var bookings []models.Booking
		if err := db.Joins("Listing").
			Where("\"Listing\".owner_id = ?", userId).
			Preload("User").
			Order("bookings.created_at DESC").
			Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		c.JSON(200, bookings)
	}
}

// ConfirmBooking transitions a pending booking to confirmed. Only the
// listing owner may confirm.
func ConfirmBooking(db *gorm.DB, cache *services.Cache, mailer *utils.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingId := c.Param("id")
		userId := c.GetUint("userId")

		var booking models.Booking
		if err := db.Preload("Listing").Preload("User").First(&booking, bookingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if booking.Listing.OwnerID != userId {
			c.JSON(403, gin.H{"error": "Only the listing owner can confirm this booking"})
			return
		}

		// Conditional update: the row only moves if it is still pending, so
		// two concurrent confirms cannot both succeed.
		result := db.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, models.BookingStatusPending).
			Updates(map[string]interface{}{
				"status":     models.BookingStatusConfirmed,
				"expires_at": nil,
			})
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to confirm booking"})
			return
		}
		if result.RowsAffected == 0 {
			if booking.Status == models.BookingStatusConfirmed {
				c.JSON(400, gin.H{"error": "Booking already confirmed"})
			} else {
				c.JSON(400, gin.H{"error": "Cancelled bookings cannot be confirmed"})
			}
			return
		}

		booking.Status = models.BookingStatusConfirmed
		booking.ExpiresAt = nil

		metrics.IncBookingTransition(string(models.BookingStatusConfirmed))
		publishBookingEvent(cache, &booking)
		recordBookingNotification(db, booking.UserID, models.NotificationBookingConfirmed, &booking)

		go func() {
			if err := mailer.SendBookingConfirmedEmail(booking.User.Email, booking.Listing.Title); err != nil {
				log.Printf("Failed to send booking confirmation email: %v", err)
			}
		}()

		c.JSON(200, booking)
	}
}

// CancelBooking transitions a booking to cancelled. Both the listing owner
// and the booking holder may cancel.
func CancelBooking(db *gorm.DB, cache *services.Cache, mailer *utils.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingId := c.Param("id")
		userId := c.GetUint("userId")

		var booking models.Booking
		if err := db.Preload("Listing").Preload("User").First(&booking, bookingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if booking.Listing.OwnerID != userId && booking.UserID != userId {
			c.JSON(403, gin.H{"error": "Unauthorized"})
			return
		}

		result := db.Model(&models.Booking{}).
			Where("id = ? AND status <> ?", booking.ID, models.BookingStatusCancelled).
			Update("status", models.BookingStatusCancelled)
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to cancel booking"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(400, gin.H{"error": "Booking already cancelled"})
			return
		}

		booking.Status = models.BookingStatusCancelled

		metrics.IncBookingTransition(string(models.BookingStatusCancelled))
		publishBookingEvent(cache, &booking)
		recordBookingNotification(db, booking.UserID, models.NotificationBookingCancelled, &booking)

		go func() {
			if err := mailer.SendBookingCancelledEmail(booking.User.Email, booking.Listing.Title); err != nil {
				log.Printf("Failed to send booking cancellation email: %v", err)
			}
		}()

		c.JSON(200, booking)
	}
}

func publishBookingEvent(cache *services.Cache, booking *models.Booking) {
	if cache == nil {
		return
	}
	event := services.BookingEvent{
		BookingID: booking.ID,
		ListingID: booking.ListingID,
		UserID:    booking.UserID,
		Status:    string(booking.Status),
	}
	if err := cache.PublishBookingEvent(context.Background(), event); err != nil {
		log.Printf("Failed to publish booking event: %v", err)
	}
}

func recordBookingNotification(db *gorm.DB, userID uint, typ models.NotificationType, booking *models.Booking) {
	notice, err := models.NewBookingNotification(userID, typ, models.BookingNotice{
		BookingID:    booking.ID,
		ListingTitle: booking.Listing.Title,
		Status:       booking.Status,
	})
	if err != nil {
		log.Printf("Failed to build booking notification: %v", err)
		return
	}
	if err := db.Create(&notice).Error; err != nil {
		log.Printf("Failed to persist booking notification: %v", err)
	}
}
