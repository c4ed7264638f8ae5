package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups handicraft products (pottery, textiles, woodwork, ...).
type Category struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Product is a handicraft item listed by an artisan.
type Product struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ArtisanID   uuid.UUID  `db:"artisan_id" json:"artisanId"`
	CategoryID  *uuid.UUID `db:"category_id" json:"categoryId,omitempty"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Price       float64    `db:"price" json:"price"`
	Currency    string     `db:"currency" json:"currency"`
	Stock       int        `db:"stock" json:"stock"`
	Craft       *string    `db:"craft" json:"craft,omitempty"`
	Region      *string    `db:"region" json:"region,omitempty"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	// Loaded separately.
	Photos        []ProductPhoto `json:"photos,omitempty"`
	AverageRating *float64       `db:"average_rating" json:"averageRating,omitempty"`
	ReviewsCount  *int           `db:"reviews_count" json:"reviewsCount,omitempty"`
}

// ProductPhoto is an uploaded image attached to a product.
type ProductPhoto struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProductID uuid.UUID `db:"product_id" json:"productId"`
	Path      string    `db:"path" json:"path"`
	MimeType  string    `db:"mime_type" json:"mimeType"`
	SortOrder int       `db:"sort_order" json:"sortOrder"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Review is a buyer's rating of a product after a delivered order.
type Review struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProductID uuid.UUID `db:"product_id" json:"productId"`
	OrderID   uuid.UUID `db:"order_id" json:"orderId"`
	BuyerID   uuid.UUID `db:"buyer_id" json:"buyerId"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Favorite is a wishlist entry.
type Favorite struct {
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	ProductID uuid.UUID `db:"product_id" json:"productId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
