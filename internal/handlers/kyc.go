package handlers

import (
	"log"
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gharbeti/gharbeti-backend/internal/services"
	"github.com/gharbeti/gharbeti-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UploadKYCDocument accepts an identity document for verification
func UploadKYCDocument(db *gorm.DB, storage *services.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		documentType := c.PostForm("documentType")
		if documentType == "" {
			c.JSON(400, gin.H{"error": "documentType is required"})
			return
		}

		file, err := c.FormFile("document")
		if err != nil {
			c.JSON(400, gin.H{"error": "Document file is required"})
			return
		}

		url, err := storage.UploadFile(file, "kyc")
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload document"})
			return
		}

		doc := models.KYCDocument{
			UserID:       userId,
			DocumentType: documentType,
			DocumentURL:  url,
			Status:       models.KYCStatusPending,
		}
		if err := db.Create(&doc).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save document"})
			return
		}

		c.JSON(201, doc)
	}
}

// GetMyKYCStatus returns the requesting user's verification documents
func GetMyKYCStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var docs []models.KYCDocument
		if err := db.Where("user_id = ?", userId).
			Order("created_at DESC").
			Find(&docs).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch documents"})
			return
		}

		c.JSON(200, docs)
	}
}

// DecideKYC approves or rejects a pending KYC document (admin only)
func DecideKYC(db *gorm.DB, mailer *utils.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminId := c.GetUint("userId")
		docId := c.Param("id")

		var input struct {
			Approve *bool  `json:"approve" binding:"required"`
			Note    string `json:"note"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var doc models.KYCDocument
		if err := db.Preload("User").First(&doc, docId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Document not found"})
			return
		}

		newStatus := models.KYCStatusApproved
		if !*input.Approve {
			newStatus = models.KYCStatusRejected
		}

		now := time.Now()
		// Only a pending document can be decided; re-deciding is rejected
		result := db.Model(&models.KYCDocument{}).
			Where("id = ? AND status = ?", doc.ID, models.KYCStatusPending).
			Updates(map[string]interface{}{
				"status":         newStatus,
				"review_note":    input.Note,
				"reviewed_by_id": adminId,
				"reviewed_at":    now,
			})
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to update document"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(400, gin.H{"error": "Document has already been decided"})
			return
		}

		doc.Status = newStatus
		doc.ReviewNote = input.Note

		if notice, err := models.NewKYCNotification(doc.UserID, models.KYCNotice{
			DocumentID: doc.ID,
			Status:     newStatus,
			Note:       input.Note,
		}); err == nil {
			if err := db.Create(&notice).Error; err != nil {
				log.Printf("Failed to persist KYC notification: %v", err)
			}
		}

		go func() {
			if err := mailer.SendKYCDecisionEmail(doc.User.Email, *input.Approve, input.Note); err != nil {
				log.Printf("Failed to send KYC decision email: %v", err)
			}
		}()

		c.JSON(200, doc)
	}
}
