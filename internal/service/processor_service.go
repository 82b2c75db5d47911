package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"docuchat-be/internal/constant"
	"docuchat-be/internal/dto"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/events"
	"docuchat-be/pkg/extract"
	"docuchat-be/pkg/llm"
	pktNats "docuchat-be/pkg/nats"
	"docuchat-be/pkg/storage"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type IProcessorService interface {
	Consume(ctx context.Context) error
}

type processorService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	contentStore   storage.ContentStore
	llmProvider    llm.LLMProvider
	eventPublisher *pktNats.Publisher

	// Shared with the chat path. Entries are dropped whenever this
	// worker writes a terminal status, chat must never answer from a
	// stale extraction.
	textCache *cache.Cache

	// Guards against processing the same document twice concurrently.
	// A reprocess enqueued while a run is in flight is dropped, the
	// running pipeline will produce the terminal status anyway.
	inFlight   map[uuid.UUID]bool
	inFlightMu sync.Mutex
}

func NewProcessorService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	contentStore storage.ContentStore,
	llmProvider llm.LLMProvider,
	eventPublisher *pktNats.Publisher,
	textCache *cache.Cache,
) IProcessorService {
	return &processorService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		contentStore:   contentStore,
		llmProvider:    llmProvider,
		eventPublisher: eventPublisher,
		textCache:      textCache,
		inFlight:       make(map[uuid.UUID]bool),
	}
}

func (ps *processorService) Consume(ctx context.Context) error {
	messages, err := ps.pubSub.Subscribe(ctx, ps.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ps.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (ps *processorService) tryAcquire(id uuid.UUID) bool {
	ps.inFlightMu.Lock()
	defer ps.inFlightMu.Unlock()
	if ps.inFlight[id] {
		return false
	}
	ps.inFlight[id] = true
	return true
}

func (ps *processorService) release(id uuid.UUID) {
	ps.inFlightMu.Lock()
	defer ps.inFlightMu.Unlock()
	delete(ps.inFlight, id)
}

func (ps *processorService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ProcessDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal process message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if !ps.tryAcquire(payload.DocumentId) {
		log.Printf("[INFO] Document %s already in flight, dropping duplicate task", payload.DocumentId)
		msg.Ack()
		return
	}
	defer ps.release(payload.DocumentId)

	ps.runPipeline(ctx, payload.DocumentId)
	msg.Ack()
}

// runPipeline drives one document from processing to a terminal status.
// It never leaves the document stuck in processing: any failure,
// including a panic, lands the document in error.
func (ps *processorService) runPipeline(ctx context.Context, documentId uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] Panic while processing document %s: %v", documentId, r)
			ps.markError(ctx, documentId)
		}
	}()

	uow := ps.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		log.Printf("[ERROR] Failed to load document %s: %v", documentId, err)
		ps.markError(ctx, documentId)
		return
	}
	if doc == nil {
		// Deleted between enqueue and processing.
		log.Printf("[INFO] Document %s no longer exists, skipping", documentId)
		return
	}

	rc, err := ps.contentStore.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrContentUnavailable) {
			log.Printf("[WARN] Content for document %s is gone, marking error", documentId)
		} else {
			log.Printf("[ERROR] Failed to open content for document %s: %v", documentId, err)
		}
		ps.markError(ctx, documentId)
		return
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		log.Printf("[ERROR] Failed to read content for document %s: %v", documentId, err)
		ps.markError(ctx, documentId)
		return
	}

	// Extraction cannot fail, unparseable inputs come back as
	// descriptive placeholder text.
	text := extract.Text(data, doc.MimeType, doc.FileSize)

	summary := ps.generateSummary(ctx, text)

	if err := uow.DocumentRepository().UpdateStatus(ctx, documentId, entity.DocumentStatusCompleted, &text, &summary); err != nil {
		log.Printf("[ERROR] Failed to finalize document %s: %v", documentId, err)
		ps.markError(ctx, documentId)
		return
	}
	ps.dropCachedText(documentId)

	if ps.eventPublisher != nil {
		if err := ps.eventPublisher.Publish(ctx, events.NewDocumentProcessed(documentId.String(), string(entity.DocumentStatusCompleted))); err != nil {
			log.Printf("[WARN] Failed to publish DOCUMENT_PROCESSED event: %v", err)
		}
	}

	log.Printf("[INFO] Document %s processed (text length: %d)", documentId, len(text))
}

// generateSummary asks the model for a summary. Summary failure never
// fails the pipeline, the fallback text is stored instead.
func (ps *processorService) generateSummary(ctx context.Context, text string) string {
	prompt := fmt.Sprintf(constant.SummaryPrompt, text)
	summary, err := ps.llmProvider.Generate(ctx, prompt)
	if err != nil || summary == "" {
		log.Printf("[WARN] Summary generation failed: %v", err)
		return constant.FallbackSummary
	}
	return summary
}

func (ps *processorService) dropCachedText(documentId uuid.UUID) {
	if ps.textCache != nil {
		ps.textCache.Delete(documentId.String())
	}
}

func (ps *processorService) markError(ctx context.Context, documentId uuid.UUID) {
	uow := ps.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().UpdateStatus(ctx, documentId, entity.DocumentStatusError, nil, nil); err != nil {
		log.Printf("[ERROR] Failed to mark document %s as error: %v", documentId, err)
	}
	ps.dropCachedText(documentId)
	if ps.eventPublisher != nil {
		if err := ps.eventPublisher.Publish(ctx, events.NewDocumentFailed(documentId.String(), "processing failed")); err != nil {
			log.Printf("[WARN] Failed to publish DOCUMENT_FAILED event: %v", err)
		}
	}
}
