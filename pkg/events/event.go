package events

import "time"

// Event is the contract for domain events published on the bus.
type Event interface {
	// EventType returns the unique code for this event (e.g. "DOCUMENT_UPLOADED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is a generic Event implementation used by the concrete
// constructors below.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	TypeUserRegistered    = "USER_REGISTERED"
	TypeDocumentUploaded  = "DOCUMENT_UPLOADED"
	TypeDocumentProcessed = "DOCUMENT_PROCESSED"
	TypeDocumentFailed    = "DOCUMENT_FAILED"
	TypeChatMessageSent   = "CHAT_MESSAGE_SENT"
)

func NewUserRegistered(userId, email string) Event {
	return BaseEvent{
		Type:       TypeUserRegistered,
		Data:       map[string]interface{}{"user_id": userId, "email": email},
		OccurredAt: time.Now(),
	}
}

func NewDocumentUploaded(documentId, userId, mimeType string, sizeBytes int64) Event {
	return BaseEvent{
		Type: TypeDocumentUploaded,
		Data: map[string]interface{}{
			"document_id": documentId,
			"user_id":     userId,
			"mime_type":   mimeType,
			"size_bytes":  sizeBytes,
		},
		OccurredAt: time.Now(),
	}
}

func NewDocumentProcessed(documentId, status string) Event {
	return BaseEvent{
		Type:       TypeDocumentProcessed,
		Data:       map[string]interface{}{"document_id": documentId, "status": status},
		OccurredAt: time.Now(),
	}
}

func NewDocumentFailed(documentId, reason string) Event {
	return BaseEvent{
		Type:       TypeDocumentFailed,
		Data:       map[string]interface{}{"document_id": documentId, "reason": reason},
		OccurredAt: time.Now(),
	}
}

func NewChatMessageSent(sessionId, documentId, userId string) Event {
	return BaseEvent{
		Type: TypeChatMessageSent,
		Data: map[string]interface{}{
			"session_id":  sessionId,
			"document_id": documentId,
			"user_id":     userId,
		},
		OccurredAt: time.Now(),
	}
}
