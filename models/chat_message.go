package models

import "time"

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage stores one turn of the sponsor chat.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UID       string    `gorm:"uniqueIndex;size:48;not null" json:"id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}
