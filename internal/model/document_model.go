package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Document struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title            string    `gorm:"type:varchar(255);not null"`
	StoredFilename   string    `gorm:"type:varchar(255);not null"`
	OriginalFilename string    `gorm:"type:varchar(255);not null"`
	StorageKey       string    `gorm:"type:varchar(512);not null"`
	FileSize         int64     `gorm:"not null"`
	MimeType         string    `gorm:"type:varchar(128);not null"`
	Status           string    `gorm:"type:varchar(20);not null;default:'processing';index"`
	ExtractedText    *string   `gorm:"type:text"`
	Summary          *string   `gorm:"type:text"`
	Metadata         datatypes.JSON
	UserId           uuid.UUID `gorm:"type:uuid;not null;index"`
	User             User      `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}
