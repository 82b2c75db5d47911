package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	// Lifecycle is strictly processing -> completed | error.
	// A terminal status only changes through an explicit reprocess.
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusError      DocumentStatus = "error"
)

type Document struct {
	Id               uuid.UUID
	Title            string
	StoredFilename   string
	OriginalFilename string
	StorageKey       string
	FileSize         int64
	MimeType         string
	Status           DocumentStatus
	ExtractedText    *string
	Summary          *string
	Metadata         map[string]interface{}
	UserId           uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
