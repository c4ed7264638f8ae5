package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/culturekart/marketplace-backend/internal/http/handlers/common"
	"github.com/culturekart/marketplace-backend/internal/service"
)

type FavoriteHandler struct {
	catalog *service.CatalogService
}

func NewFavoriteHandler(catalog *service.CatalogService) *FavoriteHandler {
	return &FavoriteHandler{catalog: catalog}
}

// List handles GET /favorites.
func (h *FavoriteHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	products, err := h.catalog.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, products)
}

// Add handles PUT /favorites/:id.
func (h *FavoriteHandler) Add(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	productID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.catalog.AddFavorite(c.Request.Context(), userID, productID); err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, gin.H{"message": "added to favorites"})
}

// Remove handles DELETE /favorites/:id.
func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	productID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.catalog.RemoveFavorite(c.Request.Context(), userID, productID); err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, gin.H{"message": "removed from favorites"})
}
