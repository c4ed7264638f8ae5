package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/culturekart/marketplace-backend/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

type ConversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetOrCreate returns the thread between a buyer and an artisan, creating
// it on first contact.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, buyerID, artisanID uuid.UUID, orderID *uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT * FROM conversations WHERE buyer_id = $1 AND artisan_id = $2 AND order_id IS NOT DISTINCT FROM $3
	`, buyerID, artisanID, orderID)
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = r.db.GetContext(ctx, &conv, `
		INSERT INTO conversations (buyer_id, artisan_id, order_id)
		VALUES ($1, $2, $3)
		RETURNING *
	`, buyerID, artisanID, orderID)
	return &conv, err
}

func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT * FROM conversations WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	return &conv, err
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs, `
		SELECT * FROM conversations
		WHERE buyer_id = $1 OR artisan_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return convs, err
}

func (r *ConversationRepository) CreateMessage(ctx context.Context, conversationID, authorID uuid.UUID, content string) (*models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages (conversation_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING *
	`, conversationID, authorID, content)
	return &msg, err
}

// ListMessages returns messages oldest-first; after narrows to messages
// newer than the given time, which is what polling clients pass between
// fetches.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, after *time.Time, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM messages
		WHERE conversation_id = $1 AND ($2::timestamptz IS NULL OR created_at > $2)
		ORDER BY created_at ASC LIMIT $3
	`, conversationID, after, limit)
	return messages, err
}
