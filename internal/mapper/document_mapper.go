package mapper

import (
	"encoding/json"
	"time"

	"docuchat-be/internal/entity"
	"docuchat-be/internal/model"

	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(d.Metadata) > 0 {
		// Tolerate malformed stored metadata: it is free-form and advisory.
		_ = json.Unmarshal(d.Metadata, &metadata)
	}

	return &entity.Document{
		Id:               d.Id,
		Title:            d.Title,
		StoredFilename:   d.StoredFilename,
		OriginalFilename: d.OriginalFilename,
		StorageKey:       d.StorageKey,
		FileSize:         d.FileSize,
		MimeType:         d.MimeType,
		Status:           entity.DocumentStatus(d.Status),
		ExtractedText:    d.ExtractedText,
		Summary:          d.Summary,
		Metadata:         metadata,
		UserId:           d.UserId,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	var metadata datatypes.JSON
	if d.Metadata != nil {
		if raw, err := json.Marshal(d.Metadata); err == nil {
			metadata = raw
		}
	}

	return &model.Document{
		Id:               d.Id,
		Title:            d.Title,
		StoredFilename:   d.StoredFilename,
		OriginalFilename: d.OriginalFilename,
		StorageKey:       d.StorageKey,
		FileSize:         d.FileSize,
		MimeType:         d.MimeType,
		Status:           string(d.Status),
		ExtractedText:    d.ExtractedText,
		Summary:          d.Summary,
		Metadata:         metadata,
		UserId:           d.UserId,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
