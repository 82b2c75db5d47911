package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadDocumentResponse struct {
	Id       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Status   string    `json:"status"`
	MimeType string    `json:"mime_type"`
	FileSize int64     `json:"file_size"`
}

// DocumentListItem omits extracted text, the list endpoint stays light.
type DocumentListItem struct {
	Id               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	OriginalFilename string     `json:"original_filename"`
	MimeType         string     `json:"mime_type"`
	FileSize         int64      `json:"file_size"`
	Status           string     `json:"status"`
	Summary          *string    `json:"summary"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

type ShowDocumentResponse struct {
	Id               uuid.UUID              `json:"id"`
	Title            string                 `json:"title"`
	OriginalFilename string                 `json:"original_filename"`
	MimeType         string                 `json:"mime_type"`
	FileSize         int64                  `json:"file_size"`
	Status           string                 `json:"status"`
	ExtractedText    *string                `json:"extracted_text"`
	Summary          *string                `json:"summary"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        *time.Time             `json:"updated_at"`
}

type ReprocessDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}
