package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/culturekart/marketplace-backend/internal/models"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.SelectContext(ctx, &categories, `SELECT * FROM categories ORDER BY name`)
	return categories, err
}

func (r *CatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := r.db.GetContext(ctx, &c, `SELECT * FROM categories WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	return &c, err
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	var out models.Product
	err := r.db.GetContext(ctx, &out, `
		INSERT INTO products (artisan_id, category_id, title, description, price, currency, stock, craft, region)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *
	`, p.ArtisanID, p.CategoryID, p.Title, p.Description, p.Price, p.Currency, p.Stock, p.Craft, p.Region)
	return &out, err
}

func (r *CatalogRepository) UpdateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	var out models.Product
	err := r.db.GetContext(ctx, &out, `
		UPDATE products SET
			category_id = $2, title = $3, description = $4, price = $5,
			stock = $6, craft = $7, region = $8, is_active = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, p.ID, p.CategoryID, p.Title, p.Description, p.Price, p.Stock, p.Craft, p.Region, p.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return &out, err
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.db.GetContext(ctx, &p, `
		SELECT p.*,
			(SELECT AVG(rating)::float FROM reviews WHERE product_id = p.id) AS average_rating,
			(SELECT COUNT(*)::int FROM reviews WHERE product_id = p.id) AS reviews_count
		FROM products p WHERE p.id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	photos, err := r.ListPhotos(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Photos = photos
	return &p, nil
}

// ListProducts returns active products, newest first, optionally filtered by
// category or artisan.
func (r *CatalogRepository) ListProducts(ctx context.Context, categoryID, artisanID *uuid.UUID, limit, offset int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.SelectContext(ctx, &products, `
		SELECT * FROM products
		WHERE is_active = TRUE
			AND ($1::uuid IS NULL OR category_id = $1)
			AND ($2::uuid IS NULL OR artisan_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, categoryID, artisanID, limit, offset)
	return products, err
}

// AdjustStock decrements stock, failing when not enough units remain.
func (r *CatalogRepository) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
	`, productID, delta)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *CatalogRepository) AddPhoto(ctx context.Context, productID uuid.UUID, path, mimeType string, sortOrder int) (*models.ProductPhoto, error) {
	var photo models.ProductPhoto
	err := r.db.GetContext(ctx, &photo, `
		INSERT INTO product_photos (product_id, path, mime_type, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, productID, path, mimeType, sortOrder)
	return &photo, err
}

func (r *CatalogRepository) ListPhotos(ctx context.Context, productID uuid.UUID) ([]models.ProductPhoto, error) {
	var photos []models.ProductPhoto
	err := r.db.SelectContext(ctx, &photos, `
		SELECT * FROM product_photos WHERE product_id = $1 ORDER BY sort_order, created_at
	`, productID)
	return photos, err
}
