package models

import (
	"time"

	"gorm.io/gorm"
)

type ChatMessage struct {
	gorm.Model
	SenderID   uint       `json:"senderId" gorm:"not null;index:idx_chat_pair"`
	ReceiverID uint       `json:"receiverId" gorm:"not null;index:idx_chat_pair"`
	Body       string     `json:"body" gorm:"not null"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
