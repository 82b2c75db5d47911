package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"docuchat-be/internal/entity"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/internal/service"
	"docuchat-be/pkg/database"
	memorystore "docuchat-be/pkg/storage/memory"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error { return nil }

func TestGormConnection(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())

	sqlDB, _ := gormDB.DB()
	assert.NoError(t, sqlDB.Ping())

	t.Run("Document lifecycle roundtrip", func(t *testing.T) {
		ctx := context.Background()

		hash := "not-a-real-hash"
		user := &entity.User{
			Id:            uuid.New(),
			Email:         "test-integration-" + uuid.New().String() + "@example.com",
			FullName:      "Integration Test",
			PasswordHash:  &hash,
			Role:          entity.UserRoleUser,
			Status:        entity.UserStatusActive,
			EmailVerified: true,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		require.NoError(t, uow.UserRepository().Create(ctx, user))
		defer uow.UserRepository().Delete(ctx, user.Id)

		doc := &entity.Document{
			Id:               uuid.New(),
			Title:            "integration doc",
			StoredFilename:   "integration.txt",
			OriginalFilename: "integration.txt",
			StorageKey:       user.Id.String() + "/integration.txt",
			FileSize:         42,
			MimeType:         "text/plain",
			Status:           entity.DocumentStatusProcessing,
			UserId:           user.Id,
			CreatedAt:        time.Now(),
		}
		require.NoError(t, uow.DocumentRepository().Create(ctx, doc))
		defer uow.DocumentRepository().Delete(ctx, doc.Id)

		found, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: doc.Id})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, entity.DocumentStatusProcessing, found.Status)

		text := "extracted text"
		summary := "a summary"
		require.NoError(t, uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusCompleted, &text, &summary))

		found, err = uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: doc.Id})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, entity.DocumentStatusCompleted, found.Status)
		require.NotNil(t, found.ExtractedText)
		assert.Equal(t, text, *found.ExtractedText)
		require.NotNil(t, found.Summary)
		assert.Equal(t, summary, *found.Summary)
	})

	t.Run("Account deletion cascade", func(t *testing.T) {
		ctx := context.Background()

		hash := "not-a-real-hash"
		user := &entity.User{
			Id:            uuid.New(),
			Email:         "test-cascade-" + uuid.New().String() + "@example.com",
			FullName:      "Cascade Test",
			PasswordHash:  &hash,
			Role:          entity.UserRoleUser,
			Status:        entity.UserStatusActive,
			EmailVerified: true,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		require.NoError(t, uow.UserRepository().Create(ctx, user))
		defer uow.UserRepository().Delete(ctx, user.Id)

		extractedText := "cascade text"
		doc := &entity.Document{
			Id:               uuid.New(),
			Title:            "cascade doc",
			StoredFilename:   "cascade.txt",
			OriginalFilename: "cascade.txt",
			StorageKey:       user.Id.String() + "/cascade.txt",
			FileSize:         12,
			MimeType:         "text/plain",
			Status:           entity.DocumentStatusCompleted,
			ExtractedText:    &extractedText,
			UserId:           user.Id,
			CreatedAt:        time.Now(),
		}
		require.NoError(t, uow.DocumentRepository().Create(ctx, doc))
		defer uow.DocumentRepository().Delete(ctx, doc.Id)

		session := &entity.ChatSession{
			Id:         uuid.New(),
			UserId:     user.Id,
			DocumentId: doc.Id,
			Title:      "cascade session",
			CreatedAt:  time.Now(),
		}
		require.NoError(t, uow.ChatSessionRepository().Create(ctx, session))
		defer uow.ChatSessionRepository().Delete(ctx, session.Id)

		for _, chat := range []string{"first question", "first answer"} {
			require.NoError(t, uow.ChatMessageRepository().Create(ctx, &entity.ChatMessage{
				Id:            uuid.New(),
				Chat:          chat,
				Role:          "user",
				ChatSessionId: session.Id,
				CreatedAt:     time.Now(),
			}))
		}

		require.NoError(t, uow.UserRepository().CreateRefreshToken(ctx, &entity.UserRefreshToken{
			Id:        uuid.New(),
			UserId:    user.Id,
			TokenHash: "cascade-token-hash-" + uuid.New().String(),
			ExpiresAt: time.Now().Add(time.Hour),
			CreatedAt: time.Now(),
		}))

		userService := service.NewUserService(uowFactory, memorystore.New(), noopLogger{})
		require.NoError(t, userService.DeleteAccount(ctx, user.Id))

		gone, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: user.Id})
		require.NoError(t, err)
		assert.Nil(t, gone, "user row must be gone")

		docCount, err := uow.DocumentRepository().Count(ctx, specification.UserOwnedBy{UserID: user.Id})
		require.NoError(t, err)
		assert.Zero(t, docCount, "no documents may remain")

		sessionCount, err := uow.ChatSessionRepository().Count(ctx, specification.UserOwnedBy{UserID: user.Id})
		require.NoError(t, err)
		assert.Zero(t, sessionCount, "no chat sessions may remain")

		messageCount, err := uow.ChatMessageRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: session.Id})
		require.NoError(t, err)
		assert.Zero(t, messageCount, "no chat messages may remain")
	})
}
