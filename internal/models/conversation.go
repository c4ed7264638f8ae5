package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a thread between a buyer and an artisan, optionally tied
// to an order.
type Conversation struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	OrderID   *uuid.UUID `db:"order_id" json:"orderId,omitempty"`
	BuyerID   uuid.UUID  `db:"buyer_id" json:"buyerId"`
	ArtisanID uuid.UUID  `db:"artisan_id" json:"artisanId"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

// Message is one entry in a conversation.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversationId"`
	AuthorID       uuid.UUID `db:"author_id" json:"authorId"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
