package handlers

import (
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gharbeti/gharbeti-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ChatWebSocket upgrades the connection and attaches it to the chat hub
func ChatWebSocket(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		services.HandleWebSocket(hub, c.Writer, c.Request, userID)
	}
}

// GetChatHistory returns the conversation between the requesting user and
// another user, oldest first, and marks received messages as read.
func GetChatHistory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		otherId := c.Param("userId")

		var messages []models.ChatMessage
		if err := db.Where(
			"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userId, otherId, otherId, userId).
			Order("created_at ASC").
			Find(&messages).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch messages"})
			return
		}

		now := time.Now()
		db.Model(&models.ChatMessage{}).
			Where("sender_id = ? AND receiver_id = ? AND read_at IS NULL", otherId, userId).
			Update("read_at", now)

		c.JSON(200, messages)
	}
}
