package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gharbeti/gharbeti-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateListing handles the creation of a new property listing
func CreateListing(db *gorm.DB, cache *services.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			Title        string  `json:"title" binding:"required"`
			Description  string  `json:"description"`
			City         string  `json:"city" binding:"required"`
			Address      string  `json:"address"`
			PropertyType string  `json:"propertyType"`
			RentOrSale   string  `json:"rentOrSale" binding:"required,oneof=Rent Sale"`
			Price        float64 `json:"price" binding:"required"`
			ImageURL     string  `json:"imageUrl"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.Price <= 0 {
			c.JSON(400, gin.H{"error": "Price must be positive"})
			return
		}

		listing := models.Listing{
			OwnerID:      userId,
			Title:        input.Title,
			Description:  input.Description,
			City:         input.City,
			Address:      input.Address,
			PropertyType: input.PropertyType,
			RentOrSale:   models.ListingCategory(input.RentOrSale),
			Price:        input.Price,
			Status:       models.ListingStatusActive,
			ImageURL:     input.ImageURL,
		}

		if err := db.Create(&listing).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create listing"})
			return
		}

		invalidateListingCache(cache)
		c.JSON(201, listing)
	}
}

// BrowseListings retrieves active listings with optional filters, served
// from the Redis cache when possible
func BrowseListings(db *gorm.DB, cache *services.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		city := c.Query("city")
		propertyType := c.Query("propertyType")
		rentOrSale := c.Query("rentOrSale")
		minPrice := c.Query("minPrice")
		maxPrice := c.Query("maxPrice")

		querySig := fmt.Sprintf("city=%s&type=%s&cat=%s&min=%s&max=%s",
			city, propertyType, rentOrSale, minPrice, maxPrice)

		if cache != nil {
			if cached, err := cache.GetCachedListings(c.Request.Context(), querySig); err == nil && cached != nil {
				c.JSON(200, cached)
				return
			}
		}

		query := db.Where("status = ?", models.ListingStatusActive)

		if city != "" {
			query = query.Where("LOWER(city) LIKE LOWER(?)", "%"+strings.ToLower(city)+"%")
		}
		if propertyType != "" {
			query = query.Where("property_type = ?", propertyType)
		}
		if rentOrSale != "" {
			query = query.Where("rent_or_sale = ?", rentOrSale)
		}
		if v, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", v)
		}
		if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", v)
		}

		var listings []models.Listing
		if err := query.Order("created_at DESC").Find(&listings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch listings"})
			return
		}

		if cache != nil {
			if err := cache.CacheListings(c.Request.Context(), querySig, listings); err != nil {
				log.Printf("Failed to cache listings: %v", err)
			}
		}

		c.JSON(200, listings)
	}
}

// GetListing retrieves a single listing with its owner
func GetListing(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var listing models.Listing
		if err := db.Preload("Owner").First(&listing, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Listing not found"})
			return
		}
		c.JSON(200, listing)
	}
}

// GetMyListings retrieves all listings owned by the requesting user
func GetMyListings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var listings []models.Listing
		if err := db.Where("owner_id = ?", userId).
			Order("created_at DESC").
			Find(&listings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch listings"})
			return
		}
		c.JSON(200, listings)
	}
}

// UpdateListing lets the owner modify a listing. Locked listings reject
// every owner mutation until an admin unlocks them.
func UpdateListing(db *gorm.DB, cache *services.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var listing models.Listing
		if err := db.First(&listing, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Listing not found"})
			return
		}

		if listing.OwnerID != userId {
			c.JSON(403, gin.H{"error": "Unauthorized"})
			return
		}
		if listing.AdminLocked {
			c.JSON(403, gin.H{"error": "Listing is locked by an administrator"})
			return
		}

		var input struct {
			Title        *string  `json:"title"`
			Description  *string  `json:"description"`
			City         *string  `json:"city"`
			Address      *string  `json:"address"`
			PropertyType *string  `json:"propertyType"`
			Price        *float64 `json:"price"`
			Status       *string  `json:"status"`
			ImageURL     *string  `json:"imageUrl"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		updates := map[string]interface{}{}
		if input.Title != nil {
			updates["title"] = *input.Title
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.City != nil {
			updates["city"] = *input.City
		}
		if input.Address != nil {
			updates["address"] = *input.Address
		}
		if input.PropertyType != nil {
			updates["property_type"] = *input.PropertyType
		}
		if input.Price != nil {
			if *input.Price <= 0 {
				c.JSON(400, gin.H{"error": "Price must be positive"})
				return
			}
			updates["price"] = *input.Price
		}
		if input.Status != nil {
			status := models.ListingStatus(*input.Status)
			switch status {
			case models.ListingStatusActive, models.ListingStatusPending,
				models.ListingStatusSold, models.ListingStatusRented,
				models.ListingStatusInactive:
				updates["status"] = status
			default:
				c.JSON(400, gin.H{"error": "Invalid listing status"})
				return
			}
		}
		if input.ImageURL != nil {
			updates["image_url"] = *input.ImageURL
		}

		// Guarded write: a lock applied after the check above still blocks
		// the mutation.
		result := db.Model(&models.Listing{}).
			Where("id = ? AND admin_locked = ?", listing.ID, false).
			Updates(updates)
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to update listing"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(403, gin.H{"error": "Listing is locked by an administrator"})
			return
		}

		invalidateListingCache(cache)

		if err := db.First(&listing, listing.ID).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to reload listing"})
			return
		}
		c.JSON(200, listing)
	}
}

// DeleteListing soft-deletes a listing and cancels its active bookings in
// the same transaction. Booking history is preserved.
func DeleteListing(db *gorm.DB, cache *services.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		role := c.GetString("userRole")

		var listing models.Listing
		if err := db.First(&listing, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Listing not found"})
			return
		}

		if listing.OwnerID != userId && role != string(models.RoleAdmin) {
			c.JSON(403, gin.H{"error": "Unauthorized"})
			return
		}
		if listing.AdminLocked && role != string(models.RoleAdmin) {
			c.JSON(403, gin.H{"error": "Listing is locked by an administrator"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Booking{}).
				Where("listing_id = ? AND status IN ?", listing.ID,
					[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed}).
				Update("status", models.BookingStatusCancelled).Error; err != nil {
				return err
			}
			return tx.Delete(&listing).Error
		})
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete listing"})
			return
		}

		invalidateListingCache(cache)
		c.JSON(200, gin.H{"message": "Listing deleted and active bookings cancelled"})
	}
}

// UploadListingImage uploads a listing photo and attaches its URL
func UploadListingImage(db *gorm.DB, storage *services.Storage, cache *services.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var listing models.Listing
		if err := db.First(&listing, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Listing not found"})
			return
		}
		if listing.OwnerID != userId {
			c.JSON(403, gin.H{"error": "Unauthorized"})
			return
		}
		if listing.AdminLocked {
			c.JSON(403, gin.H{"error": "Listing is locked by an administrator"})
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(400, gin.H{"error": "Image file is required"})
			return
		}

		url, err := storage.UploadFile(file, "listings")
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload image"})
			return
		}

		if err := db.Model(&listing).Update("image_url", url).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save image URL"})
			return
		}

		invalidateListingCache(cache)
		c.JSON(200, gin.H{"imageUrl": url})
	}
}

func invalidateListingCache(cache *services.Cache) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateListings(context.Background()); err != nil {
		log.Printf("Failed to invalidate listing cache: %v", err)
	}
}
