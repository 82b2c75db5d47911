package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id            uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Chat          string      `gorm:"type:text;not null"`
	Role          string      `gorm:"type:varchar(20);not null"`
	ChatSessionId uuid.UUID   `gorm:"type:uuid;not null;index"`
	ChatSession   ChatSession `gorm:"foreignKey:ChatSessionId;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time   `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
