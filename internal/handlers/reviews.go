package handlers

import (
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateReview lets a user review a listing they actually transacted on:
// a confirmed, paid booking, and for rentals one whose stay has ended.
func CreateReview(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			ListingID uint   `json:"listingId" binding:"required"`
			Rating    int    `json:"rating" binding:"required,min=1,max=5"`
			Comment   string `json:"comment"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var listing models.Listing
		if err := db.First(&listing, input.ListingID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Listing not found"})
			return
		}

		var existing models.Review
		if err := db.Where("listing_id = ? AND user_id = ?", input.ListingID, userId).
			First(&existing).Error; err == nil {
			c.JSON(400, gin.H{"error": "You have already reviewed this listing"})
			return
		}

		var eligible int64
		if err := db.Model(&models.Booking{}).
			Where("listing_id = ? AND user_id = ? AND status = ? AND payment_status = ?",
				input.ListingID, userId, models.BookingStatusConfirmed, models.PaymentStatusPaid).
			Where("booking_type = ? OR end_date < ?", models.BookingTypeSale, time.Now()).
			Count(&eligible).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to check review eligibility"})
			return
		}
		if eligible == 0 {
			c.JSON(403, gin.H{"error": "Only users with a completed booking can review this listing"})
			return
		}

		review := models.Review{
			ListingID: input.ListingID,
			UserID:    userId,
			Rating:    input.Rating,
			Comment:   input.Comment,
		}
		if err := db.Create(&review).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create review"})
			return
		}

		c.JSON(201, review)
	}
}

// GetListingReviews returns approved reviews and the average rating
func GetListingReviews(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		listingId := c.Param("id")

		var reviews []models.Review
		if err := db.Where("listing_id = ? AND approved = ?", listingId, true).
			Preload("User").
			Order("created_at DESC").
			Find(&reviews).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch reviews"})
			return
		}

		var average float64
		if len(reviews) > 0 {
			total := 0
			for _, r := range reviews {
				total += r.Rating
			}
			average = float64(total) / float64(len(reviews))
		}

		c.JSON(200, gin.H{
			"reviews":       reviews,
			"averageRating": average,
		})
	}
}
