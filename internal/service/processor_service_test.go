package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docuchat-be/internal/constant"
	"docuchat-be/internal/entity"
	"docuchat-be/pkg/llm"
	memorystore "docuchat-be/pkg/storage/memory"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLMProvider struct {
	chatResponse     string
	generateResponse string
	err              error

	gotHistory []llm.Message
}

func (f *fakeLLMProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.gotHistory = history
	return f.chatResponse, f.err
}

func (f *fakeLLMProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.generateResponse, f.err
}

func TestGenerateSummary_Success(t *testing.T) {
	ps := &processorService{
		llmProvider: &fakeLLMProvider{generateResponse: "A concise summary."},
	}

	got := ps.generateSummary(context.Background(), "document text")
	assert.Equal(t, "A concise summary.", got)
}

func TestGenerateSummary_FailureUsesFallback(t *testing.T) {
	ps := &processorService{
		llmProvider: &fakeLLMProvider{err: errors.New("model offline")},
	}

	got := ps.generateSummary(context.Background(), "document text")
	assert.Equal(t, constant.FallbackSummary, got)
}

func TestGenerateSummary_EmptyResponseUsesFallback(t *testing.T) {
	ps := &processorService{
		llmProvider: &fakeLLMProvider{generateResponse: ""},
	}

	got := ps.generateSummary(context.Background(), "document text")
	assert.Equal(t, constant.FallbackSummary, got)
}

func TestRunPipeline_DropsCachedDocumentText(t *testing.T) {
	ctx := context.Background()
	docId := uuid.New()
	key := "user/" + docId.String() + ".txt"

	store := memorystore.New()
	require.NoError(t, store.Save(ctx, key, strings.NewReader("fresh extraction")))

	docs := &fakeDocumentRepo{doc: &entity.Document{
		Id:         docId,
		StorageKey: key,
		MimeType:   "text/plain",
		FileSize:   16,
		Status:     entity.DocumentStatusProcessing,
	}}

	textCache := NewDocumentTextCache()
	textCache.Set(docId.String(), &cachedDocumentText{Title: "Doc", Text: "stale extraction"}, cache.DefaultExpiration)

	ps := &processorService{
		uowFactory:   &fakeRepositoryFactory{uow: &fakeUnitOfWork{docs: docs}},
		contentStore: store,
		llmProvider:  &fakeLLMProvider{generateResponse: "A summary."},
		textCache:    textCache,
		inFlight:     make(map[uuid.UUID]bool),
	}

	ps.runPipeline(ctx, docId)

	assert.Equal(t, entity.DocumentStatusCompleted, docs.lastStatus)
	require.NotNil(t, docs.lastText)
	assert.Equal(t, "fresh extraction", *docs.lastText)

	_, found := textCache.Get(docId.String())
	assert.False(t, found, "stale text must not survive a finished run")
}

func TestInFlightGuard(t *testing.T) {
	ps := &processorService{inFlight: make(map[uuid.UUID]bool)}
	id := uuid.New()

	assert.True(t, ps.tryAcquire(id))
	assert.False(t, ps.tryAcquire(id), "second acquire while in flight must fail")

	ps.release(id)
	assert.True(t, ps.tryAcquire(id), "acquire after release must succeed")

	// An unrelated document is never blocked.
	assert.True(t, ps.tryAcquire(uuid.New()))
}
