package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
	"github.com/culturekart/marketplace-backend/internal/repository"
	"github.com/culturekart/marketplace-backend/internal/validation"
)

// CatalogStore is the catalog persistence the service depends on.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, categoryID, artisanID *uuid.UUID, limit, offset int) ([]models.Product, error)
	ListPhotos(ctx context.Context, productID uuid.UUID) ([]models.ProductPhoto, error)
}

// ReviewStore persists buyer reviews.
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]models.Review, error)
}

// FavoriteStore persists wishlist entries.
type FavoriteStore interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
}

// ReviewOrderStore checks the order a review claims to come from.
type ReviewOrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// ProductInput carries the artisan's create/update payload.
type ProductInput struct {
	CategoryID  *uuid.UUID `json:"categoryId"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Price       float64    `json:"price" binding:"required,gt=0"`
	Currency    string     `json:"currency"`
	Stock       int        `json:"stock" binding:"gte=0"`
	Craft       *string    `json:"craft"`
	Region      *string    `json:"region"`
	IsActive    *bool      `json:"isActive"`
}

type CatalogService struct {
	catalog   CatalogStore
	reviews   ReviewStore
	favorites FavoriteStore
	orders    ReviewOrderStore
}

func NewCatalogService(catalog CatalogStore, reviews ReviewStore, favorites FavoriteStore, orders ReviewOrderStore) *CatalogService {
	return &CatalogService{catalog: catalog, reviews: reviews, favorites: favorites, orders: orders}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.catalog.ListCategories(ctx)
}

func (s *CatalogService) CreateProduct(ctx context.Context, artisanID uuid.UUID, in *ProductInput) (*models.Product, error) {
	if err := validation.ValidateProductTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validation.ValidateAmount(in.Price); err != nil {
		return nil, err
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return s.catalog.CreateProduct(ctx, &models.Product{
		ArtisanID:   artisanID,
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		Description: in.Description,
		Price:       models.Round2(in.Price),
		Currency:    currency,
		Stock:       in.Stock,
		Craft:       in.Craft,
		Region:      in.Region,
		IsActive:    active,
	})
}

// UpdateProduct lets the owning artisan edit a listing.
func (s *CatalogService) UpdateProduct(ctx context.Context, requesterID uuid.UUID, role string, productID uuid.UUID, in *ProductInput) (*models.Product, error) {
	existing, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, s.mapProductError(err)
	}
	if role != models.RoleAdmin && existing.ArtisanID != requesterID {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateProductTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validation.ValidateAmount(in.Price); err != nil {
		return nil, err
	}

	existing.CategoryID = in.CategoryID
	existing.Title = in.Title
	existing.Description = in.Description
	existing.Price = models.Round2(in.Price)
	existing.Stock = in.Stock
	existing.Craft = in.Craft
	existing.Region = in.Region
	if in.Currency != "" {
		existing.Currency = in.Currency
	}
	if in.IsActive != nil {
		existing.IsActive = *in.IsActive
	}
	return s.catalog.UpdateProduct(ctx, existing)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, s.mapProductError(err)
	}
	if photos, err := s.catalog.ListPhotos(ctx, id); err == nil {
		product.Photos = photos
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID, artisanID *uuid.UUID, limit, offset int) ([]models.Product, error) {
	return s.catalog.ListProducts(ctx, categoryID, artisanID, limit, offset)
}

// CreateReview accepts one review per product per delivered order, from the
// buyer who placed that order.
func (s *CatalogService) CreateReview(ctx context.Context, buyerID uuid.UUID, review *models.Review) (*models.Review, error) {
	if err := validation.ValidateRating(review.Rating); err != nil {
		return nil, err
	}
	order, err := s.orders.GetByID(ctx, review.OrderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, apperror.ErrForbidden
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, apperror.New(apperror.ErrCodeConflict, "only delivered orders can be reviewed")
	}
	found := false
	for _, item := range order.Items {
		if item.ProductID == review.ProductID {
			found = true
			break
		}
	}
	if !found {
		return nil, apperror.New(apperror.ErrCodeValidation, "product is not part of this order")
	}

	review.BuyerID = buyerID
	created, err := s.reviews.Create(ctx, review)
	if err != nil {
		if errors.Is(err, repository.ErrReviewExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "review already submitted for this order")
		}
		return nil, err
	}
	return created, nil
}

func (s *CatalogService) ListReviews(ctx context.Context, productID uuid.UUID, limit, offset int) ([]models.Review, error) {
	return s.reviews.ListByProduct(ctx, productID, limit, offset)
}

func (s *CatalogService) AddFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return s.mapProductError(err)
	}
	return s.favorites.Add(ctx, userID, productID)
}

func (s *CatalogService) RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	return s.favorites.Remove(ctx, userID, productID)
}

func (s *CatalogService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	return s.favorites.ListProducts(ctx, userID)
}

func (s *CatalogService) mapProductError(err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return apperror.ErrProductNotFound
	}
	return err
}
