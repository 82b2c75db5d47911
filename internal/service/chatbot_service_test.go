package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"docuchat-be/internal/constant"
	"docuchat-be/internal/dto"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/repository/contract"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repository fakes. Unimplemented methods panic through the
// embedded nil interface, which is fine for these tests.

type fakeDocumentRepo struct {
	contract.DocumentRepository
	doc *entity.Document

	lastStatus  entity.DocumentStatus
	lastText    *string
	lastSummary *string
}

func (f *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	return f.doc, nil
}

func (f *fakeDocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.DocumentStatus, extractedText, summary *string) error {
	f.lastStatus = status
	f.lastText = extractedText
	f.lastSummary = summary
	return nil
}

type fakeChatSessionRepo struct {
	contract.ChatSessionRepository
	session *entity.ChatSession
}

func (f *fakeChatSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	return f.session, nil
}

func (f *fakeChatSessionRepo) Update(ctx context.Context, session *entity.ChatSession) error {
	f.session = session
	return nil
}

type fakeChatMessageRepo struct {
	contract.ChatMessageRepository
	messages []*entity.ChatMessage
}

func (f *fakeChatMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	f.messages = append(f.messages, message)
	return nil
}

// FindAll honors ordering and pagination the way the real query does, so
// a dropped limit shows up as an oversized result.
func (f *fakeChatMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	out := make([]*entity.ChatMessage, len(f.messages))
	copy(out, f.messages)

	limit := len(out)
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.OrderBy:
			desc := sp.Desc
			sort.Slice(out, func(i, j int) bool {
				if desc {
					return out[i].CreatedAt.After(out[j].CreatedAt)
				}
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			})
		case specification.Pagination:
			limit = sp.Limit
		}
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type fakeUnitOfWork struct {
	docs     *fakeDocumentRepo
	sessions *fakeChatSessionRepo
	messages *fakeChatMessageRepo
}

func (f *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (f *fakeUnitOfWork) Commit() error                   { return nil }
func (f *fakeUnitOfWork) Rollback() error                 { return nil }

func (f *fakeUnitOfWork) UserRepository() contract.UserRepository { return nil }
func (f *fakeUnitOfWork) DocumentRepository() contract.DocumentRepository {
	return f.docs
}
func (f *fakeUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return f.sessions
}
func (f *fakeUnitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return f.messages
}

type fakeRepositoryFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeRepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

func TestBuildPrompt_SystemMessageCarriesDocument(t *testing.T) {
	s := &chatbotService{}
	docText := &cachedDocumentText{
		Title: "Q3 Report",
		Text:  "Revenue grew 12% in the third quarter.",
	}

	messages := s.buildPrompt(docText, nil, "How did revenue do?")

	require.Len(t, messages, 2)
	assert.Equal(t, constant.ChatMessageRoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "Q3 Report")
	assert.Contains(t, messages[0].Content, "Revenue grew 12% in the third quarter.")
	assert.Equal(t, constant.ChatMessageRoleUser, messages[1].Role)
	assert.Equal(t, "How did revenue do?", messages[1].Content)
}

func TestBuildPrompt_HistoryReplayedOldestFirst(t *testing.T) {
	s := &chatbotService{}
	docText := &cachedDocumentText{Title: "Doc", Text: "content"}

	// Repository returns history newest first.
	history := []*entity.ChatMessage{
		{Id: uuid.New(), Role: constant.ChatMessageRoleAssistant, Chat: "second answer", CreatedAt: time.Now()},
		{Id: uuid.New(), Role: constant.ChatMessageRoleUser, Chat: "second question", CreatedAt: time.Now().Add(-time.Minute)},
		{Id: uuid.New(), Role: constant.ChatMessageRoleAssistant, Chat: "first answer", CreatedAt: time.Now().Add(-2 * time.Minute)},
		{Id: uuid.New(), Role: constant.ChatMessageRoleUser, Chat: "first question", CreatedAt: time.Now().Add(-3 * time.Minute)},
	}

	messages := s.buildPrompt(docText, history, "third question")

	require.Len(t, messages, 6)
	assert.Equal(t, "first question", messages[1].Content)
	assert.Equal(t, "first answer", messages[2].Content)
	assert.Equal(t, "second question", messages[3].Content)
	assert.Equal(t, "second answer", messages[4].Content)
	assert.Equal(t, "third question", messages[5].Content)
}

func TestSendChat_WindowedHistoryAndSources(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	docId := uuid.New()
	sessionId := uuid.New()

	text := "Revenue grew 12% in the third quarter."
	uow := &fakeUnitOfWork{
		docs: &fakeDocumentRepo{doc: &entity.Document{
			Id:            docId,
			UserId:        userId,
			Title:         "Q3 Report",
			Status:        entity.DocumentStatusCompleted,
			ExtractedText: &text,
		}},
		sessions: &fakeChatSessionRepo{session: &entity.ChatSession{
			Id:         sessionId,
			UserId:     userId,
			DocumentId: docId,
			Title:      "Revenue questions",
		}},
		messages: &fakeChatMessageRepo{},
	}

	// Six stored turns, one more than the context window holds.
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 6; i++ {
		role := constant.ChatMessageRoleUser
		if i%2 == 1 {
			role = constant.ChatMessageRoleAssistant
		}
		uow.messages.messages = append(uow.messages.messages, &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: sessionId,
			Role:          role,
			Chat:          fmt.Sprintf("turn %d", i+1),
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
	}

	llmFake := &fakeLLMProvider{chatResponse: "Revenue grew 12%."}
	svc := NewChatbotService(&fakeRepositoryFactory{uow: uow}, llmFake, nil, nil, NewDocumentTextCache())

	res, err := svc.SendChat(ctx, userId, &dto.SendChatRequest{
		ChatSessionId: sessionId,
		Chat:          "How did revenue do?",
	})
	require.NoError(t, err)

	// System message, the five newest stored turns, the new question.
	// Turn 1 falls out of the window.
	require.Len(t, llmFake.gotHistory, 7)
	assert.Equal(t, constant.ChatMessageRoleSystem, llmFake.gotHistory[0].Role)
	assert.Equal(t, "turn 2", llmFake.gotHistory[1].Content)
	assert.Equal(t, "turn 6", llmFake.gotHistory[5].Content)
	assert.Equal(t, "How did revenue do?", llmFake.gotHistory[6].Content)
	for _, msg := range llmFake.gotHistory {
		assert.NotEqual(t, "turn 1", msg.Content)
	}

	assert.Equal(t, []string{"Q3 Report"}, res.Sources)
	assert.Equal(t, baseConfidence, res.Confidence)
	require.NotNil(t, res.Reply)
	assert.Equal(t, "Revenue grew 12%.", res.Reply.Chat)
}

func TestTitleFromQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{
			name:     "short question kept as is",
			question: "What is the refund policy?",
			want:     "What is the refund policy?",
		},
		{
			name:     "whitespace collapsed",
			question: "  What   is \n the policy?  ",
			want:     "What is the policy?",
		},
		{
			name:     "long question truncated with ellipsis",
			question: strings.Repeat("word ", 30),
			want:     strings.TrimSpace(strings.Repeat("word ", 30)[:sessionTitleMaxLength]) + "...",
		},
		{
			name:     "multibyte question truncated on a rune boundary",
			question: strings.Repeat("отчёт ", 15),
			want:     strings.TrimSpace(string([]rune(strings.TrimSpace(strings.Repeat("отчёт ", 15)))[:sessionTitleMaxLength])) + "...",
		},
		{
			name:     "empty falls back to default",
			question: "   ",
			want:     defaultSessionTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titleFromQuestion(tt.question)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			assert.LessOrEqual(t, utf8.RuneCountInString(got), sessionTitleMaxLength+3)
		})
	}
}
