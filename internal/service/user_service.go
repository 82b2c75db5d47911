package service

import (
	"context"
	"fmt"

	"docuchat-be/internal/dto"
	"docuchat-be/internal/pkg/logger"
	"docuchat-be/internal/pkg/serverutils"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/storage"

	"github.com/google/uuid"
)

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
	DeleteAccount(ctx context.Context, userId uuid.UUID) error
}

type userService struct {
	uowFactory   unitofwork.RepositoryFactory
	contentStore storage.ContentStore
	logger       logger.ILogger
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, contentStore storage.ContentStore, log logger.ILogger) IUserService {
	return &userService{
		uowFactory:   uowFactory,
		contentStore: contentStore,
		logger:       log,
	}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, serverutils.NewNotFoundError("User not found")
	}

	return &dto.UserProfileResponse{
		Id:        user.Id,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, serverutils.NewNotFoundError("User not found")
	}

	user.FullName = req.FullName
	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userId)
}

// DeleteAccount removes the user and everything hanging off it: chat
// messages, chat sessions, documents with their stored bytes, and auth
// tokens. The database rows go in one transaction, stored bytes are
// cleaned up afterwards since the content store is not transactional.
func (s *userService) DeleteAccount(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return serverutils.NewNotFoundError("User not found")
	}

	documents, err := uow.DocumentRepository().FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return err
	}

	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.UserOwnedBy{UserID: userId})
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
	if err := uow.ChatSessionRepository().DeleteAllByUserId(ctx, userId); err != nil {
		return err
	}
	if err := uow.DocumentRepository().DeleteAllByUserId(ctx, userId); err != nil {
		return err
	}
	if err := uow.UserRepository().DeleteTokensByUserId(ctx, userId); err != nil {
		return err
	}
	if err := uow.UserRepository().Delete(ctx, userId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	for _, doc := range documents {
		if err := s.contentStore.Delete(ctx, doc.StorageKey); err != nil {
			s.logger.Warn("user_service", "failed to delete stored content", map[string]interface{}{
				"document_id": doc.Id.String(),
				"error":       fmt.Sprintf("%v", err),
			})
		}
	}

	s.logger.Info("user_service", "account deleted", map[string]interface{}{
		"user_id":   userId.String(),
		"documents": len(documents),
		"sessions":  len(sessions),
	})
	return nil
}
