package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User is a platform account: buyer, artisan or admin.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// ArtisanProfile is the public face of a seller: workshop, craft, region.
type ArtisanProfile struct {
	UserID      uuid.UUID  `db:"user_id" json:"userId"`
	DisplayName string     `db:"display_name" json:"displayName"`
	WorkshopName *string   `db:"workshop_name" json:"workshopName,omitempty"`
	Bio         *string    `db:"bio" json:"bio,omitempty"`
	Craft       *string    `db:"craft" json:"craft,omitempty"`
	Region      *string    `db:"region" json:"region,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	PhotoPath   *string    `db:"photo_path" json:"photoPath,omitempty"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// Session stores an issued refresh token.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"userId"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	UserAgent    *string   `db:"user_agent" json:"userAgent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ipAddress,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Notification is a persisted event delivered to a user, pushed over the
// websocket hub when the user is connected.
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Kind      string    `db:"kind" json:"kind"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool      `db:"is_read" json:"isRead"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
