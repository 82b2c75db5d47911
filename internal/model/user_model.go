package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email           string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash    *string   `gorm:"type:varchar(255)"`
	FullName        string    `gorm:"type:varchar(255);not null"`
	Role            string    `gorm:"type:varchar(20);not null;default:'user'"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending'"`
	EmailVerified   bool      `gorm:"not null;default:false"`
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type EmailVerificationToken struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	User      User      `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	Token     string    `gorm:"type:varchar(64);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (EmailVerificationToken) TableName() string {
	return "email_verification_tokens"
}

type UserRefreshToken struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	User      User      `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	TokenHash string    `gorm:"type:varchar(64);not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	Revoked   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	IpAddress string    `gorm:"type:varchar(45)"`
	UserAgent string    `gorm:"type:text"`
}

func (UserRefreshToken) TableName() string {
	return "user_refresh_tokens"
}
