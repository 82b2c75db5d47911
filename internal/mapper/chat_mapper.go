package mapper

import (
	"time"

	"docuchat-be/internal/entity"
	"docuchat-be/internal/model"
)

type ChatSessionMapper struct{}

func NewChatSessionMapper() *ChatSessionMapper {
	return &ChatSessionMapper{}
}

func (m *ChatSessionMapper) ToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:         s.Id,
		UserId:     s.UserId,
		DocumentId: s.DocumentId,
		Title:      s.Title,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *ChatSessionMapper) ToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:         s.Id,
		UserId:     s.UserId,
		DocumentId: s.DocumentId,
		Title:      s.Title,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *ChatSessionMapper) ToEntities(sessions []*model.ChatSession) []*entity.ChatSession {
	entities := make([]*entity.ChatSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

type ChatMessageMapper struct{}

func NewChatMessageMapper() *ChatMessageMapper {
	return &ChatMessageMapper{}
}

func (m *ChatMessageMapper) ToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	return &entity.ChatMessage{
		Id:            msg.Id,
		Chat:          msg.Chat,
		Role:          msg.Role,
		ChatSessionId: msg.ChatSessionId,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMessageMapper) ToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	return &model.ChatMessage{
		Id:            msg.Id,
		Chat:          msg.Chat,
		Role:          msg.Role,
		ChatSessionId: msg.ChatSessionId,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMessageMapper) ToEntities(msgs []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(msgs))
	for i, msg := range msgs {
		entities[i] = m.ToEntity(msg)
	}
	return entities
}
