package service

import (
	"context"
	"encoding/json"

	"docuchat-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IPublisherService interface {
	PublishProcessDocument(ctx context.Context, documentId uuid.UUID) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *publisherService) PublishProcessDocument(ctx context.Context, documentId uuid.UUID) error {
	payload, err := json.Marshal(dto.ProcessDocumentMessage{DocumentId: documentId})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	return ps.pubSub.Publish(ps.topicName, msg)
}
