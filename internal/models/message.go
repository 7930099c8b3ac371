package models

import (
	"time"
)

// ChatRecord is one stored chat exchange: the visitor's message and the
// assistant's response, threaded by conversation
type ChatRecord struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"index"`
	Message        string    `json:"message"`
	Response       string    `json:"response"`
	Timestamp      time.Time `json:"timestamp"`
	CreatedAt      time.Time `json:"created_at"`
}
