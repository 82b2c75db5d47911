package dto

import "github.com/google/uuid"

// ProcessDocumentMessage is the payload carried on the document
// processing topic.
type ProcessDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
