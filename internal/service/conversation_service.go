package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
	"github.com/culturekart/marketplace-backend/internal/repository"
	"github.com/culturekart/marketplace-backend/internal/validation"
)

// ConversationStore is the messaging persistence the service depends on.
type ConversationStore interface {
	GetOrCreate(ctx context.Context, buyerID, artisanID uuid.UUID, orderID *uuid.UUID) (*models.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error)
	CreateMessage(ctx context.Context, conversationID, authorID uuid.UUID, content string) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, after *time.Time, limit int) ([]models.Message, error)
}

// MessagePusher pushes a new message to connected participants. Optional.
type MessagePusher interface {
	PushMessage(userID uuid.UUID, msg *models.Message)
}

type ConversationService struct {
	store  ConversationStore
	users  CodeUserStore
	pusher MessagePusher
}

func NewConversationService(store ConversationStore, users CodeUserStore, pusher MessagePusher) *ConversationService {
	return &ConversationService{store: store, users: users, pusher: pusher}
}

// Start opens (or reuses) the thread between the caller and an artisan,
// optionally pinned to an order.
func (s *ConversationService) Start(ctx context.Context, buyerID, artisanID uuid.UUID, orderID *uuid.UUID) (*models.Conversation, error) {
	if buyerID == artisanID {
		return nil, apperror.New(apperror.ErrCodeValidation, "cannot start a conversation with yourself")
	}
	artisan, err := s.users.GetByID(ctx, artisanID)
	if err != nil {
		return nil, err
	}
	if artisan.Role != models.RoleArtisan {
		return nil, apperror.New(apperror.ErrCodeValidation, "conversations can only be started with artisans")
	}
	return s.store.GetOrCreate(ctx, buyerID, artisanID, orderID)
}

func (s *ConversationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	return s.store.ListForUser(ctx, userID, limit, offset)
}

// Send posts a message into a thread the author participates in and pushes
// it to the other side if they are connected.
func (s *ConversationService) Send(ctx context.Context, authorID, conversationID uuid.UUID, content string) (*models.Message, error) {
	if err := validation.ValidateMessageBody(content); err != nil {
		return nil, err
	}
	conv, err := s.getParticipantConversation(ctx, authorID, conversationID)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.CreateMessage(ctx, conversationID, authorID, content)
	if err != nil {
		return nil, err
	}

	if s.pusher != nil {
		recipient := conv.BuyerID
		if authorID == conv.BuyerID {
			recipient = conv.ArtisanID
		}
		s.pusher.PushMessage(recipient, msg)
	}
	return msg, nil
}

// Messages returns a page of a thread, oldest first. Polling clients pass
// the timestamp of the last message they saw as after.
func (s *ConversationService) Messages(ctx context.Context, userID, conversationID uuid.UUID, after *time.Time, limit int) ([]models.Message, error) {
	if _, err := s.getParticipantConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID, after, limit)
}

func (s *ConversationService) getParticipantConversation(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.store.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "conversation not found")
		}
		return nil, err
	}
	if conv.BuyerID != userID && conv.ArtisanID != userID {
		return nil, apperror.ErrForbidden
	}
	return conv, nil
}
