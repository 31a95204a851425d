package handlers

import (
	"errors"
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gharbeti/gharbeti-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BanUser toggles a user ban. The guard and the write run inside one
// transaction so a booking created concurrently cannot orphan itself under
// a banned account.
func BanUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminId := c.GetUint("userId")
		targetId := c.Param("id")

		var input struct {
			Ban    *bool  `json:"ban" binding:"required"`
			Reason string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var target models.User
		txErr := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&target, targetId).Error; err != nil {
				return err
			}

			if !*input.Ban {
				return tx.Model(&target).Updates(map[string]interface{}{
					"is_banned":    false,
					"ban_reason":   "",
					"banned_at":    nil,
					"banned_by_id": nil,
				}).Error
			}

			if err := services.CanBanUser(tx, adminId, &target); err != nil {
				return err
			}

			now := time.Now()
			return tx.Model(&target).Updates(map[string]interface{}{
				"is_banned":    true,
				"ban_reason":   input.Reason,
				"banned_at":    now,
				"banned_by_id": adminId,
			}).Error
		})

		switch {
		case errors.Is(txErr, gorm.ErrRecordNotFound):
			c.JSON(404, gin.H{"error": "User not found"})
		case errors.Is(txErr, services.ErrBanSelf),
			errors.Is(txErr, services.ErrBanAdmin),
			errors.Is(txErr, services.ErrUserHasBookings):
			c.JSON(400, gin.H{"error": txErr.Error()})
		case txErr != nil:
			c.JSON(500, gin.H{"error": "Failed to update ban status"})
		default:
			if err := db.First(&target, target.ID).Error; err == nil {
				c.JSON(200, target)
			} else {
				c.JSON(200, gin.H{"message": "Ban status updated"})
			}
		}
	}
}

// LockListing toggles the administrative lock on a listing. Locking forces
// the listing inactive and records the reason; unlocking clears the reason
// and leaves the status for the admin or owner to change afterwards.
func LockListing(db *gorm.DB, cache *services.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		listingId := c.Param("id")

		var input struct {
			Lock   *bool  `json:"lock" binding:"required"`
			Reason string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var listing models.Listing
		txErr := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&listing, listingId).Error; err != nil {
				return err
			}

			if !*input.Lock {
				return tx.Model(&listing).Updates(map[string]interface{}{
					"admin_locked": false,
					"lock_reason":  "",
				}).Error
			}

			if input.Reason == "" {
				return services.ErrLockReasonEmpty
			}
			if err := services.CanLockListing(tx, &listing); err != nil {
				return err
			}

			return tx.Model(&listing).Updates(map[string]interface{}{
				"admin_locked": true,
				"lock_reason":  input.Reason,
				"status":       models.ListingStatusInactive,
			}).Error
		})

		switch {
		case errors.Is(txErr, gorm.ErrRecordNotFound):
			c.JSON(404, gin.H{"error": "Listing not found"})
		case errors.Is(txErr, services.ErrLockReasonEmpty),
			errors.Is(txErr, services.ErrListingIsRented),
			errors.Is(txErr, services.ErrListingHasActive):
			c.JSON(400, gin.H{"error": txErr.Error()})
		case txErr != nil:
			c.JSON(500, gin.H{"error": "Failed to update lock status"})
		default:
			invalidateListingCache(cache)
			if err := db.First(&listing, listing.ID).Error; err == nil {
				c.JSON(200, listing)
			} else {
				c.JSON(200, gin.H{"message": "Lock status updated"})
			}
		}
	}
}

// GetPendingReviews lists reviews awaiting moderation
func GetPendingReviews(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reviews []models.Review
		if err := db.Where("approved = ?", false).
			Preload("User").
			Order("created_at ASC").
			Find(&reviews).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch reviews"})
			return
		}
		c.JSON(200, reviews)
	}
}

// ApproveReview marks a review as approved for public display
func ApproveReview(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		reviewId := c.Param("id")

		var review models.Review
		if err := db.First(&review, reviewId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Review not found"})
			return
		}

		if err := db.Model(&review).Update("approved", true).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to approve review"})
			return
		}

		c.JSON(200, review)
	}
}

// GetPendingKYC lists KYC documents awaiting a decision
func GetPendingKYC(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var docs []models.KYCDocument
		if err := db.Where("status = ?", models.KYCStatusPending).
			Preload("User").
			Order("created_at ASC").
			Find(&docs).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch KYC documents"})
			return
		}
		c.JSON(200, docs)
	}
}
