package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/culturekart/marketplace-backend/internal/models"
)

// SeedService fills a development database with a usable storefront:
// accounts for each role, categories and a few products. Never mounted in
// production.
type SeedService struct {
	db *sqlx.DB
}

func NewSeedService(db *sqlx.DB) *SeedService {
	return &SeedService{db: db}
}

type SeedResult struct {
	AdminEmail   string      `json:"adminEmail"`
	ArtisanEmail string      `json:"artisanEmail"`
	BuyerEmail   string      `json:"buyerEmail"`
	Password     string      `json:"password"`
	ProductIDs   []uuid.UUID `json:"productIds"`
}

func (s *SeedService) Seed(ctx context.Context) (*SeedResult, error) {
	const password = "seed-password-1"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed: hash password: %w", err)
	}

	result := &SeedResult{
		AdminEmail:   "admin@culturekart.dev",
		ArtisanEmail: "artisan@culturekart.dev",
		BuyerEmail:   "buyer@culturekart.dev",
		Password:     password,
	}

	adminID, err := s.upsertUser(ctx, result.AdminEmail, "Seed Admin", string(hash), models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	artisanID, err := s.upsertUser(ctx, result.ArtisanEmail, "Zainab Khan", string(hash), models.RoleArtisan)
	if err != nil {
		return nil, err
	}
	if _, err := s.upsertUser(ctx, result.BuyerEmail, "Seed Buyer", string(hash), models.RoleBuyer); err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artisan_profiles (user_id, display_name, workshop_name, bio, craft, region)
		VALUES ($1, 'Zainab Khan', 'Khan Pottery Works', 'Third-generation potter from Multan.', 'blue pottery', 'Multan')
		ON CONFLICT (user_id) DO NOTHING
	`, artisanID)
	if err != nil {
		return nil, fmt.Errorf("seed: artisan profile: %w", err)
	}

	categories := map[string]string{
		"pottery":  "Pottery",
		"textiles": "Textiles",
		"woodwork": "Woodwork",
	}
	categoryIDs := make(map[string]uuid.UUID, len(categories))
	for slug, name := range categories {
		var id uuid.UUID
		err := s.db.GetContext(ctx, &id, `
			INSERT INTO categories (slug, name)
			VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, slug, name)
		if err != nil {
			return nil, fmt.Errorf("seed: category %s: %w", slug, err)
		}
		categoryIDs[slug] = id
	}

	products := []struct {
		category string
		title    string
		price    float64
		stock    int
		craft    string
		region   string
	}{
		{"pottery", "Multani Blue Pottery Vase", 68.00, 12, "blue pottery", "Multan"},
		{"textiles", "Sindhi Ajrak Shawl", 45.50, 30, "ajrak block printing", "Sindh"},
		{"woodwork", "Chiniot Carved Jewelry Box", 89.99, 8, "wood carving", "Chiniot"},
	}
	for _, p := range products {
		var id uuid.UUID
		err := s.db.GetContext(ctx, &id, `
			INSERT INTO products (artisan_id, category_id, title, description, price, currency, stock, craft, region, is_active)
			VALUES ($1, $2, $3, $4, $5, 'USD', $6, $7, $8, TRUE)
			ON CONFLICT DO NOTHING
			RETURNING id
		`, artisanID, categoryIDs[p.category], p.title, "Handmade by "+p.craft+" artisans.", p.price, p.stock, p.craft, p.region)
		if err != nil {
			// ON CONFLICT DO NOTHING returns no row on replay; skip silently.
			continue
		}
		result.ProductIDs = append(result.ProductIDs, id)
	}

	logrus.WithField("admin_id", adminID).Info("seed data ready")
	return result, nil
}

func (s *SeedService) upsertUser(ctx context.Context, email, username, passwordHash, role string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.GetContext(ctx, &id, `
		INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET username = EXCLUDED.username
		RETURNING id
	`, email, username, passwordHash, role)
	if err != nil {
		return uuid.Nil, fmt.Errorf("seed: user %s: %w", email, err)
	}
	return id, nil
}
