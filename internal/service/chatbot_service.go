package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docuchat-be/internal/constant"
	"docuchat-be/internal/dto"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/pkg/logger"
	"docuchat-be/internal/pkg/serverutils"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/events"
	"docuchat-be/pkg/extract"
	"docuchat-be/pkg/llm"
	pktNats "docuchat-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	defaultSessionTitle   = "New Chat"
	sessionTitleMaxLength = 50
	documentTextCacheTTL  = 5 * time.Minute

	// Answers grounded in real extracted text get the base confidence,
	// answers over placeholder text get the degraded one.
	baseConfidence        = 0.85
	placeholderConfidence = 0.4
)

type IChatbotService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
}

type chatbotService struct {
	uowFactory     unitofwork.RepositoryFactory
	llmProvider    llm.LLMProvider
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger

	// Caches document title and extracted text per document so repeated
	// turns in a session skip the full row fetch.
	textCache *cache.Cache
}

type cachedDocumentText struct {
	Title         string
	Text          string
	IsPlaceholder bool
}

// NewDocumentTextCache builds the document text cache shared between the
// chat path and the writers that must drop entries when a document is
// reprocessed or deleted.
func NewDocumentTextCache() *cache.Cache {
	return cache.New(documentTextCacheTTL, 10*time.Minute)
}

func NewChatbotService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	textCache *cache.Cache,
) IChatbotService {
	return &chatbotService{
		uowFactory:     uowFactory,
		llmProvider:    llmProvider,
		eventPublisher: eventPublisher,
		logger:         log,
		textCache:      textCache,
	}
}

// CreateSession starts a conversation bound to one completed document.
func (s *chatbotService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: req.DocumentId})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, serverutils.NewNotFoundError("Document not found")
	}
	if doc.UserId != userId {
		return nil, serverutils.NewForbiddenError("You do not own this document")
	}
	if doc.Status != entity.DocumentStatusCompleted {
		return nil, serverutils.NewBadRequestError("DOCUMENT_NOT_READY", "Document is not ready for chat")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultSessionTitle
	}

	session := &entity.ChatSession{
		Id:         uuid.New(),
		UserId:     userId,
		DocumentId: req.DocumentId,
		Title:      title,
		CreatedAt:  time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		Id:         session.Id,
		DocumentId: session.DocumentId,
		Title:      session.Title,
	}, nil
}

func (s *chatbotService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, session := range sessions {
		res = append(res, &dto.GetAllSessionsResponse{
			Id:         session.Id,
			DocumentId: session.DocumentId,
			Title:      session.Title,
			CreatedAt:  session.CreatedAt,
			UpdatedAt:  session.UpdatedAt,
		})
	}
	return res, nil
}

func (s *chatbotService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwnedSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetChatHistoryResponse, 0, len(messages))
	for _, msg := range messages {
		res = append(res, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Chat:      msg.Chat,
			CreatedAt: msg.CreatedAt,
		})
	}
	return res, nil
}

// SendChat persists the user's question, asks the model with the full
// document text plus the recent history window, then persists the
// reply. The user message is committed in its own transaction before
// the model call, so a model failure never loses the question.
func (s *chatbotService) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}

	docText, err := s.documentText(ctx, uow, session.DocumentId)
	if err != nil {
		return nil, err
	}

	history, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: constant.ChatContextWindowSize, Offset: 0},
	)
	if err != nil {
		return nil, err
	}
	isFirstMessage := len(history) == 0

	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          req.Chat,
		Role:          constant.ChatMessageRoleUser,
		ChatSessionId: session.Id,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}

	prompt := s.buildPrompt(docText, history, req.Chat)

	answer, err := s.llmProvider.Chat(ctx, prompt)
	if err != nil || strings.TrimSpace(answer) == "" {
		s.logger.Error("chatbot_service", "model call failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      fmt.Sprintf("%v", err),
		})
		return nil, serverutils.NewAIUnavailableError("The AI service is currently unavailable, please try again")
	}

	assistantMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          answer,
		Role:          constant.ChatMessageRoleAssistant,
		ChatSessionId: session.Id,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMessage); err != nil {
		return nil, err
	}

	if isFirstMessage && session.Title == defaultSessionTitle {
		session.Title = titleFromQuestion(req.Chat)
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			s.logger.Warn("chatbot_service", "failed to update session title", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      fmt.Sprintf("%v", err),
			})
		}
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.NewChatMessageSent(session.Id.String(), session.DocumentId.String(), userId.String())); err != nil {
			s.logger.Warn("chatbot_service", "failed to publish CHAT_MESSAGE_SENT event", map[string]interface{}{
				"error": fmt.Sprintf("%v", err),
			})
		}
	}

	confidence := baseConfidence
	if docText.IsPlaceholder {
		confidence = placeholderConfidence
	}

	return &dto.SendChatResponse{
		ChatSessionId:    session.Id,
		ChatSessionTitle: session.Title,
		Sent: &dto.SendChatResponseChat{
			Id:        userMessage.Id,
			Chat:      userMessage.Chat,
			Role:      userMessage.Role,
			CreatedAt: userMessage.CreatedAt,
		},
		Reply: &dto.SendChatResponseChat{
			Id:        assistantMessage.Id,
			Chat:      assistantMessage.Chat,
			Role:      assistantMessage.Role,
			CreatedAt: assistantMessage.CreatedAt,
		},
		Sources:    []string{docText.Title},
		Confidence: confidence,
	}, nil
}

func (s *chatbotService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwnedSession(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *chatbotService) findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, serverutils.NewNotFoundError("Chat session not found")
	}
	if session.UserId != userId {
		return nil, serverutils.NewForbiddenError("You do not own this chat session")
	}
	return session, nil
}

func (s *chatbotService) documentText(ctx context.Context, uow unitofwork.UnitOfWork, documentId uuid.UUID) (*cachedDocumentText, error) {
	if s.textCache != nil {
		if cached, found := s.textCache.Get(documentId.String()); found {
			if text, ok := cached.(*cachedDocumentText); ok {
				return text, nil
			}
		}
	}

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, serverutils.NewNotFoundError("Document not found")
	}
	if doc.Status != entity.DocumentStatusCompleted || doc.ExtractedText == nil {
		return nil, serverutils.NewBadRequestError("DOCUMENT_NOT_READY", "Document is not ready for chat")
	}

	text := &cachedDocumentText{
		Title:         doc.Title,
		Text:          *doc.ExtractedText,
		IsPlaceholder: extract.IsPlaceholder(*doc.ExtractedText),
	}
	if s.textCache != nil {
		s.textCache.Set(documentId.String(), text, cache.DefaultExpiration)
	}
	return text, nil
}

// buildPrompt assembles the system message with the full document text,
// the recent history window oldest first, and the new question.
func (s *chatbotService) buildPrompt(docText *cachedDocumentText, history []*entity.ChatMessage, question string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)

	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: fmt.Sprintf(constant.QASystemPrompt, docText.Title, docText.Text),
	})

	// History arrives newest first, replay it oldest first.
	for i := len(history) - 1; i >= 0; i-- {
		messages = append(messages, llm.Message{
			Role:    history[i].Role,
			Content: history[i].Chat,
		})
	}

	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleUser,
		Content: question,
	})
	return messages
}

func titleFromQuestion(question string) string {
	title := strings.TrimSpace(question)
	title = strings.Join(strings.Fields(title), " ")
	// Truncate on rune boundaries so multibyte questions never yield an
	// invalid UTF-8 title.
	if runes := []rune(title); len(runes) > sessionTitleMaxLength {
		title = strings.TrimSpace(string(runes[:sessionTitleMaxLength])) + "..."
	}
	if title == "" {
		return defaultSessionTitle
	}
	return title
}
