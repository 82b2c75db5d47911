package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"docuchat-be/internal/dto"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/pkg/logger"
	"docuchat-be/internal/pkg/serverutils"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/events"
	pktNats "docuchat-be/pkg/nats"
	"docuchat-be/pkg/storage"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type IDocumentService interface {
	Upload(ctx context.Context, userId uuid.UUID, originalFilename, mimeType string, content []byte) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]dto.DocumentListItem, error)
	Show(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (*dto.ShowDocumentResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) error
	Reprocess(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (*dto.ReprocessDocumentResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	contentStore     storage.ContentStore
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger

	// Shared with the chat path, dropped on delete and reprocess.
	textCache *cache.Cache
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	contentStore storage.ContentStore,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	textCache *cache.Cache,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		contentStore:     contentStore,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
		textCache:        textCache,
	}
}

func (s *documentService) dropCachedText(documentId uuid.UUID) {
	if s.textCache != nil {
		s.textCache.Delete(documentId.String())
	}
}

// Upload stores the raw bytes, creates the document in processing
// status and enqueues the extraction task. The response returns
// immediately, clients poll the document until it leaves processing.
func (s *documentService) Upload(ctx context.Context, userId uuid.UUID, originalFilename, mimeType string, content []byte) (*dto.UploadDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	docId := uuid.New()
	ext := filepath.Ext(originalFilename)
	storedFilename := docId.String() + ext
	storageKey := fmt.Sprintf("%s/%s", userId, storedFilename)

	if err := s.contentStore.Save(ctx, storageKey, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to store content: %w", err)
	}

	title := originalFilename
	if ext != "" && len(title) > len(ext) {
		title = title[:len(title)-len(ext)]
	}

	doc := &entity.Document{
		Id:               docId,
		Title:            title,
		StoredFilename:   storedFilename,
		OriginalFilename: originalFilename,
		StorageKey:       storageKey,
		FileSize:         int64(len(content)),
		MimeType:         mimeType,
		Status:           entity.DocumentStatusProcessing,
		UserId:           userId,
		CreatedAt:        time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		// Roll the stored bytes back so no orphan content remains.
		_ = s.contentStore.Delete(ctx, storageKey)
		return nil, err
	}

	if err := s.publisherService.PublishProcessDocument(ctx, docId); err != nil {
		s.logger.Error("document_service", "failed to enqueue processing task", map[string]interface{}{
			"document_id": docId.String(),
			"error":       fmt.Sprintf("%v", err),
		})
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.NewDocumentUploaded(docId.String(), userId.String(), mimeType, doc.FileSize)); err != nil {
			s.logger.Warn("document_service", "failed to publish DOCUMENT_UPLOADED event", map[string]interface{}{
				"error": fmt.Sprintf("%v", err),
			})
		}
	}

	return &dto.UploadDocumentResponse{
		Id:       doc.Id,
		Title:    doc.Title,
		Status:   string(doc.Status),
		MimeType: doc.MimeType,
		FileSize: doc.FileSize,
	}, nil
}

func (s *documentService) List(ctx context.Context, userId uuid.UUID) ([]dto.DocumentListItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DocumentListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, dto.DocumentListItem{
			Id:               doc.Id,
			Title:            doc.Title,
			OriginalFilename: doc.OriginalFilename,
			MimeType:         doc.MimeType,
			FileSize:         doc.FileSize,
			Status:           string(doc.Status),
			Summary:          doc.Summary,
			CreatedAt:        doc.CreatedAt,
			UpdatedAt:        doc.UpdatedAt,
		})
	}
	return items, nil
}

// findOwned loads a document and enforces ownership: absent rows give
// 404, rows owned by someone else give 403. The two cases stay
// distinguishable on purpose.
func (s *documentService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, documentId uuid.UUID) (*entity.Document, error) {
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, serverutils.NewNotFoundError("Document not found")
	}
	if doc.UserId != userId {
		return nil, serverutils.NewForbiddenError("You do not own this document")
	}
	return doc, nil
}

func (s *documentService) Show(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}

	return &dto.ShowDocumentResponse{
		Id:               doc.Id,
		Title:            doc.Title,
		OriginalFilename: doc.OriginalFilename,
		MimeType:         doc.MimeType,
		FileSize:         doc.FileSize,
		Status:           string(doc.Status),
		ExtractedText:    doc.ExtractedText,
		Summary:          doc.Summary,
		Metadata:         doc.Metadata,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}, nil
}

// Delete removes the document, its chat sessions with their messages,
// and finally the stored bytes.
func (s *documentService) Delete(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return err
	}

	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.ByDocumentID{DocumentID: documentId})
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	for _, session := range sessions {
		if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, session.Id); err != nil {
			return err
		}
	}
	if err := uow.ChatSessionRepository().DeleteByDocumentId(ctx, documentId); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, documentId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}
	s.dropCachedText(documentId)

	if err := s.contentStore.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Warn("document_service", "failed to delete stored content", map[string]interface{}{
			"document_id": documentId.String(),
			"error":       fmt.Sprintf("%v", err),
		})
	}
	return nil
}

// Reprocess re-enters the pipeline from a terminal status. If the
// stored bytes are gone the document is marked error immediately and
// the client gets a content unavailable failure.
func (s *documentService) Reprocess(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (*dto.ReprocessDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}

	rc, err := s.contentStore.Open(ctx, doc.StorageKey)
	if err != nil {
		if updateErr := uow.DocumentRepository().UpdateStatus(ctx, documentId, entity.DocumentStatusError, nil, nil); updateErr != nil {
			return nil, updateErr
		}
		s.dropCachedText(documentId)
		return nil, serverutils.NewContentUnavailableError("Stored content is no longer available, please upload the document again")
	}
	rc.Close()

	if err := uow.DocumentRepository().UpdateStatus(ctx, documentId, entity.DocumentStatusProcessing, nil, nil); err != nil {
		return nil, err
	}
	s.dropCachedText(documentId)

	if err := s.publisherService.PublishProcessDocument(ctx, documentId); err != nil {
		return nil, err
	}

	return &dto.ReprocessDocumentResponse{
		Id:     documentId,
		Status: string(entity.DocumentStatusProcessing),
	}, nil
}
