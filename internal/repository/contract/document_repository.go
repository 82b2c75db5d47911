package contract

import (
	"context"

	"docuchat-be/internal/entity"
	"docuchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	Update(ctx context.Context, doc *entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpdateStatus writes pipeline results in one statement. Nil text or
	// summary keeps the previously stored value.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.DocumentStatus, extractedText, summary *string) error
}
