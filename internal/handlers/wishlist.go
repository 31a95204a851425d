package handlers

import (
	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AddToWishlist saves a listing for the requesting user
func AddToWishlist(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			ListingID uint `json:"listingId" binding:"required"`
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

		var existing models.WishlistItem
		if err := db.Where("user_id = ? AND listing_id = ?", userId, input.ListingID).
			First(&existing).Error; err == nil {
			c.JSON(400, gin.H{"error": "Listing already in wishlist"})
			return
		}

		item := models.WishlistItem{
			UserID:    userId,
			ListingID: input.ListingID,
		}
		if err := db.Create(&item).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to add to wishlist"})
			return
		}

		c.JSON(201, item)
	}
}

// RemoveFromWishlist removes a saved listing
func RemoveFromWishlist(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		listingId := c.Param("listingId")

		result := db.Where("user_id = ? AND listing_id = ?", userId, listingId).
			Delete(&models.WishlistItem{})
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to remove from wishlist"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(404, gin.H{"error": "Listing not in wishlist"})
			return
		}

		c.JSON(200, gin.H{"message": "Removed from wishlist"})
	}
}

// GetWishlist lists the requesting user's saved listings
func GetWishlist(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var items []models.WishlistItem
		if err := db.Where("user_id = ?", userId).
			Preload("Listing").
			Order("created_at DESC").
			Find(&items).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch wishlist"})
			return
		}

		c.JSON(200, items)
	}
}
