package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/culturekart/marketplace-backend/internal/http/handlers/common"
	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/service"
	"github.com/culturekart/marketplace-backend/internal/storage"
)

// PhotoRepo persists photo records after the file lands on disk.
type PhotoRepo interface {
	AddPhoto(ctx context.Context, productID uuid.UUID, path, mimeType string, sortOrder int) (*models.ProductPhoto, error)
}

type CatalogHandler struct {
	catalog   *service.CatalogService
	photos    *storage.PhotoStorage
	photoRepo PhotoRepo
}

func NewCatalogHandler(catalog *service.CatalogService, photos *storage.PhotoStorage, photoRepo PhotoRepo) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, photos: photos, photoRepo: photoRepo}
}

// ListCategories handles GET /categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, categories)
}

// ListProducts handles GET /products with optional categoryId/artisanId
// filters.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	var categoryID, artisanID *uuid.UUID
	if raw := c.Query("categoryId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "categoryId must be a valid UUID")
			return
		}
		categoryID = &parsed
	}
	if raw := c.Query("artisanId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "artisanId must be a valid UUID")
			return
		}
		artisanID = &parsed
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), categoryID, artisanID, limit, offset)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, products)
}

// GetProduct handles GET /products/:id.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, product)
}

// CreateProduct handles POST /products (artisan only).
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req service.ProductInput
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), userID, &req)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, product)
}

// UpdateProduct handles PUT /products/:id.
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req service.ProductInput
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), userID, role, id, &req)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, product)
}

// UploadPhoto handles POST /products/:id/photos (multipart form, field
// "photo").
func (h *CatalogHandler) UploadPhoto(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	if role != models.RoleAdmin && product.ArtisanID != userID {
		common.RespondForbidden(c, "")
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		common.RespondBadRequest(c, "photo file is required")
		return
	}
	defer file.Close()

	path, mimeType, err := h.photos.Save(c.Request.Context(), id, header.Filename, file)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	photo, err := h.photoRepo.AddPhoto(c.Request.Context(), id, path, mimeType, 0)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, photo)
}
