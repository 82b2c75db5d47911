package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	User       User      `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	DocumentId uuid.UUID `gorm:"type:uuid;not null;index"`
	Document   Document  `gorm:"foreignKey:DocumentId;constraint:OnDelete:CASCADE"`
	Title      string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
